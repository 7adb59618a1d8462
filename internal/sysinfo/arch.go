package sysinfo

import "runtime"

// UnknownArchitecture is reported for targets without a canonical name.
const UnknownArchitecture = "unknown"

var families = map[string]string{
	"386":      "x86",
	"amd64":    "x86_64",
	"arm":      "arm",
	"arm64":    "aarch64",
	"riscv64":  "riscv64",
	"ppc64":    "powerpc64",
	"ppc64le":  "powerpc64",
	"mips":     "mips",
	"mipsle":   "mips",
	"mips64":   "mips64",
	"mips64le": "mips64",
	"loong64":  "loongarch64",
	"s390x":    "s390x",
	"wasm":     "wasm32",
}

// Architecture returns the instruction-set family this binary was built for.
func Architecture() string {
	return Family(runtime.GOARCH)
}

// Family maps a GOARCH value to its family name.
func Family(goarch string) string {
	if f, ok := families[goarch]; ok {
		return f
	}
	return UnknownArchitecture
}
