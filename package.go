package asic

import asiccore "github.com/meigma/asic/core"

// PackageJob describes one container built by Package.
type PackageJob = asiccore.PackageJob

// Packaging helpers re-exported from core.
var (
	// Package builds, signs and closes one container file and returns its
	// OCI descriptor.
	Package = asiccore.Package

	// PackageAll runs Package for every job on a bounded worker pool.
	PackageAll = asiccore.PackageAll

	// Describe returns an OCI descriptor of a container file.
	Describe = asiccore.Describe
)
