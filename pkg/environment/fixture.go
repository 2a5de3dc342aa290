package environment

import "context"

// Fixture is a Provider backed by fixed values. Any accessor whose name is
// present in Errors fails with that error instead.
type Fixture struct {
	Facts  Facts
	Errors map[string]error
}

func (f *Fixture) err(name string) error {
	if f.Errors == nil {
		return nil
	}
	return f.Errors[name]
}

func (f *Fixture) ProductVersion(context.Context) (string, error) {
	return f.Facts.ProductVersion, f.err("product_version")
}

func (f *Fixture) HostVersion(context.Context) (string, error) {
	return f.Facts.HostVersion, f.err("host_version")
}

func (f *Fixture) Language(context.Context) (string, error) {
	return f.Facts.Language, f.err("language")
}

func (f *Fixture) RuntimeVersion(context.Context) (string, error) {
	return f.Facts.RuntimeVersion, f.err("runtime_version")
}

func (f *Fixture) DatabaseVersion(context.Context) (string, error) {
	return f.Facts.DatabaseVersion, f.err("database_version")
}

func (f *Fixture) Domain(context.Context) (string, error) {
	return f.Facts.Domain, f.err("domain")
}

func (f *Fixture) InstalledPlugins(context.Context) ([]Component, error) {
	return f.Facts.Plugins, f.err("installed_plugins")
}

func (f *Fixture) ActiveTheme(context.Context) (*Component, error) {
	return f.Facts.Theme, f.err("installed_theme")
}
