/*
Package catalog defines the service catalog for the tenant stack.

The catalog is a single value object mapping each service type to its
default image, internal port, replica count, resource template, and probe
path. It is constructed once and injected into the manifest generator;
per-tenant ServiceDescriptor overrides merge over these defaults at render
time.

Keeping the table in one injected value (rather than constants scattered
across the packages that need them) means there is exactly one place where
the stack's shape is defined.

# Usage

	cat := catalog.Default()
	tpl, err := cat.Resolve(descriptor) // descriptor overrides win
	image := tpl.Image()                // "repo:tag"
*/
package catalog
