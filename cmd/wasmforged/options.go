package main

import "github.com/spf13/pflag"

// daemonOptions holds every flag wasmforged accepts, separated from
// cobra's command wiring so tests can install and parse flags without
// spinning up a full command tree.
type daemonOptions struct {
	configFile string
	host       string
	port       int
}

func newDaemonOptions() *daemonOptions {
	return &daemonOptions{
		host: "127.0.0.1",
	}
}

func (o *daemonOptions) installFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.configFile, "config", "", "path to the wasmforge config file (default: the OS config directory)")
	flags.StringVar(&o.host, "host", o.host, "host to bind to for TCP connections")
	flags.IntVar(&o.port, "port", 0, "port to listen on for TCP connections (0 uses the config's default_port, or stdio if it has none)")
}
