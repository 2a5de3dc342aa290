package environment

import (
	"cmp"
	"context"
	"os"
	"runtime"
	"strings"
)

// SystemProvider answers the few facts the local process can know about
// itself. It is meant as the last provider in a MultiProvider.
type SystemProvider struct{}

func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

func (p *SystemProvider) ProductVersion(context.Context) (string, error) {
	return "", ErrNotAvailable
}

func (p *SystemProvider) HostVersion(context.Context) (string, error) {
	return "", ErrNotAvailable
}

// Language converts LANG (en_US.UTF-8) into a BCP 47 tag (en-US).
func (p *SystemProvider) Language(context.Context) (string, error) {
	lang := cmp.Or(os.Getenv("LC_ALL"), os.Getenv("LANG"))
	lang, _, _ = strings.Cut(lang, ".")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return "", ErrNotAvailable
	}
	return strings.ReplaceAll(lang, "_", "-"), nil
}

func (p *SystemProvider) RuntimeVersion(context.Context) (string, error) {
	return strings.TrimPrefix(runtime.Version(), "go"), nil
}

func (p *SystemProvider) DatabaseVersion(context.Context) (string, error) {
	return "", ErrNotAvailable
}

func (p *SystemProvider) Domain(context.Context) (string, error) {
	return os.Hostname()
}

func (p *SystemProvider) InstalledPlugins(context.Context) ([]Component, error) {
	return nil, ErrNotAvailable
}

func (p *SystemProvider) ActiveTheme(context.Context) (*Component, error) {
	return nil, ErrNotAvailable
}
