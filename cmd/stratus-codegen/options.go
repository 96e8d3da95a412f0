package main

// Options defines CLI flags for the stratus-codegen tool.
type Options struct {
	URL        string `short:"u" long:"url" description:"Connection URL (stratus://host;user=U;password=P)"`
	Connection string `short:"n" long:"connection" description:"Named connection to use instead of a URL"`
	OutDir     string `short:"o" long:"out" default:"./models" description:"Output directory for generated files"`
	Package    string `short:"p" long:"package" default:"models" description:"Package name of the generated files"`
	FilterPath string `short:"f" long:"filter" description:"Path to a YAML filter file selecting objects and fields"`
	Verbose    bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}
