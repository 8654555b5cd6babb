package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			fmt.Printf("go:         %s (%s/%s)\n", info.GoVersion, runtime.GOOS, runtime.GOARCH)
			fmt.Printf("cpu:        %s\n", cpuSummary())
			return nil
		},
	}
}

// cpuSummary reports what ONNX Runtime's CPU provider cares about: core
// counts and the widest vector extensions.
func cpuSummary() string {
	c := cpuid.CPU
	var ext []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma"},
		{cpuid.AVX512F, "avx512f"},
		{cpuid.AVX512VNNI, "avx512vnni"},
		{cpuid.AVXVNNI, "avxvnni"},
		{cpuid.ASIMD, "neon"},
	} {
		if c.Supports(f.id) {
			ext = append(ext, f.name)
		}
	}
	s := fmt.Sprintf("%s, %d physical / %d logical cores", strings.TrimSpace(c.BrandName), c.PhysicalCores, c.LogicalCores)
	if len(ext) > 0 {
		s += ", " + strings.Join(ext, " ")
	}
	return s
}
