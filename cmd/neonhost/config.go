package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/go-hostbridge/bridge"
	gojabridge "github.com/joeycumines/go-hostbridge/goja-bridge"
	"github.com/joeycumines/go-hostbridge/hostsim"
)

type fileConfig struct {
	Transport    string           `toml:"transport"`
	HostGlobal   string           `toml:"host_global"`
	Subscription string           `toml:"subscription"`
	Verbose      bool             `toml:"verbose"`
	Delegates    []delegateConfig `toml:"delegate"`
	Emits        []emitConfig     `toml:"emit"`
}

type delegateConfig struct {
	Response any    `toml:"response"`
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Mode     string `toml:"mode"`
	Raw      string `toml:"raw"`
	Message  string `toml:"message"`
	Code     int    `toml:"code"`
}

// emitConfig is a host-originated invocation, delivered after the script
// has run. Data is usually JSON text.
type emitConfig struct {
	Name string `toml:"name"`
	Data string `toml:"data"`
}

// hostConfig describes the simulated host.
type hostConfig struct {
	Transport    gojabridge.TransportKind
	HostGlobal   string
	Subscription string
	Delegates    []hostsim.Delegate
	Emits        []emitConfig
	Verbose      bool
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		Transport: gojabridge.TransportQuery,
		Verbose:   true,
	}
}

func loadHostConfig(path string) (hostConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return hostConfig{}, fmt.Errorf("load host config: %w", err)
	}
	return buildHostConfig(raw, meta)
}

func parseHostConfig(data string) (hostConfig, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return hostConfig{}, fmt.Errorf("parse host config: %w", err)
	}
	return buildHostConfig(raw, meta)
}

func buildHostConfig(raw fileConfig, meta toml.MetaData) (hostConfig, error) {
	cfg := defaultHostConfig()

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return hostConfig{}, fmt.Errorf("unknown host config key %q", undecoded[0].String())
	}

	if meta.IsDefined("transport") {
		kind, err := gojabridge.ParseTransportKind(strings.TrimSpace(raw.Transport))
		if err != nil {
			return hostConfig{}, err
		}
		cfg.Transport = kind
	}

	if meta.IsDefined("host_global") {
		cfg.HostGlobal = strings.TrimSpace(raw.HostGlobal)
	}

	if meta.IsDefined("subscription") {
		cfg.Subscription = strings.TrimSpace(raw.Subscription)
	}

	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	for i, d := range raw.Delegates {
		delegate, err := d.delegate()
		if err != nil {
			return hostConfig{}, fmt.Errorf("delegate %d: %w", i, err)
		}
		cfg.Delegates = append(cfg.Delegates, delegate)
	}

	for i, e := range raw.Emits {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return hostConfig{}, fmt.Errorf("emit %d: name is required", i)
		}
		cfg.Emits = append(cfg.Emits, e)
	}

	return cfg, nil
}

func (d delegateConfig) delegate() (hostsim.Delegate, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return hostsim.Delegate{}, fmt.Errorf("name is required")
	}

	kind := bridge.KindFunction
	if d.Kind != "" {
		kind = bridge.Kind(strings.TrimSpace(d.Kind))
		if !kind.Valid() {
			return hostsim.Delegate{}, fmt.Errorf("%s: invalid kind %q", name, d.Kind)
		}
	}

	mode := hostsim.ModeEcho
	if d.Mode != "" {
		mode = hostsim.Mode(strings.TrimSpace(d.Mode))
	}
	switch mode {
	case hostsim.ModeEcho, hostsim.ModeStatic, hostsim.ModeFail, hostsim.ModeSilent, hostsim.ModeDuplicate:
	default:
		return hostsim.Delegate{}, fmt.Errorf("%s: invalid mode %q", name, d.Mode)
	}

	out := hostsim.Delegate{
		Name:     kind.Delegate(name),
		Mode:     mode,
		Response: d.Response,
		Code:     d.Code,
		Message:  d.Message,
	}
	if d.Raw != "" {
		if d.Response != nil {
			return hostsim.Delegate{}, fmt.Errorf("%s: response and raw are mutually exclusive", name)
		}
		out.Response = hostsim.RawText(d.Raw)
	}
	return out, nil
}
