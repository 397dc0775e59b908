package manifest

// Kubernetes object shapes rendered by the generator. Only the fields this
// system emits are modeled; the cluster API ignores nothing here.

// Metadata identifies an object within the cluster
type Metadata struct {
	Name      string            `yaml:"name" json:"name"`
	Namespace string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Labels    map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Namespace is a cluster-scoped tenant boundary
type Namespace struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
}

// Secret carries the per-tenant generated secrets
type Secret struct {
	APIVersion string            `yaml:"apiVersion" json:"apiVersion"`
	Kind       string            `yaml:"kind" json:"kind"`
	Metadata   Metadata          `yaml:"metadata" json:"metadata"`
	Type       string            `yaml:"type" json:"type"`
	StringData map[string]string `yaml:"stringData" json:"stringData"`
}

// ConfigMap carries tenant branding and stack configuration
type ConfigMap struct {
	APIVersion string            `yaml:"apiVersion" json:"apiVersion"`
	Kind       string            `yaml:"kind" json:"kind"`
	Metadata   Metadata          `yaml:"metadata" json:"metadata"`
	Data       map[string]string `yaml:"data" json:"data"`
}

// PersistentVolumeClaim requests tenant storage
type PersistentVolumeClaim struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       PVCSpec  `yaml:"spec" json:"spec"`
}

type PVCSpec struct {
	AccessModes []string     `yaml:"accessModes" json:"accessModes"`
	Resources   PVCResources `yaml:"resources" json:"resources"`
}

type PVCResources struct {
	Requests map[string]string `yaml:"requests" json:"requests"`
}

// Deployment runs one application service
type Deployment struct {
	APIVersion string         `yaml:"apiVersion" json:"apiVersion"`
	Kind       string         `yaml:"kind" json:"kind"`
	Metadata   Metadata       `yaml:"metadata" json:"metadata"`
	Spec       DeploymentSpec `yaml:"spec" json:"spec"`
}

type DeploymentSpec struct {
	Replicas int         `yaml:"replicas" json:"replicas"`
	Selector Selector    `yaml:"selector" json:"selector"`
	Template PodTemplate `yaml:"template" json:"template"`
}

type Selector struct {
	MatchLabels map[string]string `yaml:"matchLabels" json:"matchLabels"`
}

type PodTemplate struct {
	Metadata Metadata `yaml:"metadata" json:"metadata"`
	Spec     PodSpec  `yaml:"spec" json:"spec"`
}

type PodSpec struct {
	Containers []Container `yaml:"containers" json:"containers"`
}

type Container struct {
	Name           string               `yaml:"name" json:"name"`
	Image          string               `yaml:"image" json:"image"`
	Ports          []ContainerPort      `yaml:"ports" json:"ports"`
	Env            []EnvVar             `yaml:"env,omitempty" json:"env,omitempty"`
	Resources      ResourceRequirements `yaml:"resources" json:"resources"`
	LivenessProbe  *Probe               `yaml:"livenessProbe,omitempty" json:"livenessProbe,omitempty"`
	ReadinessProbe *Probe               `yaml:"readinessProbe,omitempty" json:"readinessProbe,omitempty"`
}

type ContainerPort struct {
	ContainerPort int `yaml:"containerPort" json:"containerPort"`
}

type EnvVar struct {
	Name      string        `yaml:"name" json:"name"`
	Value     string        `yaml:"value,omitempty" json:"value,omitempty"`
	ValueFrom *EnvVarSource `yaml:"valueFrom,omitempty" json:"valueFrom,omitempty"`
}

type EnvVarSource struct {
	SecretKeyRef *SecretKeySelector `yaml:"secretKeyRef,omitempty" json:"secretKeyRef,omitempty"`
}

type SecretKeySelector struct {
	Name string `yaml:"name" json:"name"`
	Key  string `yaml:"key" json:"key"`
}

type ResourceRequirements struct {
	Requests map[string]string `yaml:"requests" json:"requests"`
	Limits   map[string]string `yaml:"limits" json:"limits"`
}

type Probe struct {
	HTTPGet             HTTPGetAction `yaml:"httpGet" json:"httpGet"`
	InitialDelaySeconds int           `yaml:"initialDelaySeconds" json:"initialDelaySeconds"`
	PeriodSeconds       int           `yaml:"periodSeconds" json:"periodSeconds"`
}

type HTTPGetAction struct {
	Path string `yaml:"path" json:"path"`
	Port int    `yaml:"port" json:"port"`
}

// Service exposes one application service on a NodePort
type Service struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       ServiceSpec `yaml:"spec" json:"spec"`
}

type ServiceSpec struct {
	Type     string            `yaml:"type" json:"type"`
	Selector map[string]string `yaml:"selector" json:"selector"`
	Ports    []ServicePort     `yaml:"ports" json:"ports"`
}

type ServicePort struct {
	Name       string `yaml:"name" json:"name"`
	Port       int    `yaml:"port" json:"port"`
	TargetPort int    `yaml:"targetPort" json:"targetPort"`
	NodePort   int    `yaml:"nodePort" json:"nodePort"`
}
