// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"runtime"
	"time"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time   TimeConfiguration
	Assets AssetsConfiguration
	Log    LogConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the event loop polling interval in milliseconds
	EventPollDelay int
}

// AssetsConfiguration is used to configure the texture store
type AssetsConfiguration struct {
	// Workers is the number of background decoders.
	// Zero uses one per available CPU.
	Workers int

	// MaxDimension is the longest side a decoded texture may have,
	// larger images are downsampled to fit.
	MaxDimension int

	// Scaler names the downsampling kernel: nearest, approxbilinear,
	// bilinear or catmullrom.
	Scaler string

	// Root is the directory relative filesystem keys are looked up in.
	Root string

	// Bundle is a path to a kar archive of shipped assets.
	Bundle string

	// BundleBox is a directory of assets read through a packr box at runtime,
	// relative to the working directory.
	BundleBox string

	// HTTPTimeout bounds remote fetches. Zero waits indefinitely.
	HTTPTimeout time.Duration
}

// LogConfiguration is used to configure logging
type LogConfiguration struct {
	Level string
	JSON  bool
}

// DefaultConfiguration is the configuration used when nothing overrides it
var DefaultConfiguration = Configuration{
	Time: TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  50,
	},
	Assets: AssetsConfiguration{
		Workers:      runtime.NumCPU(),
		MaxDimension: 4096,
		Scaler:       "catmullrom",
	},
	Log: LogConfiguration{
		Level: "info",
	},
}
