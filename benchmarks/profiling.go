package benchmarks

import (
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"
)

var (
	cpuprofile string
	memprofile string
)

// startProfiling writes the profiles requested on the command line under saveFile.
// The returned function stops the cpu profile and writes the heap profile.
func startProfiling(saveFile string, logger *zap.Logger) (func(), error) {
	stops := make([]func(), 0, 2)
	if cpuprofile != "" {
		if err := os.MkdirAll(saveFile, os.ModePerm); err != nil {
			return nil, err
		}
		cpuProfPath := path.Join(saveFile, cpuprofile)
		logger.Info("profiling cpu", zap.String("path", cpuProfPath))
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, err
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if memprofile != "" {
		memProfPath := path.Join(saveFile, memprofile)
		stops = append(stops, func() {
			logger.Info("profiling memory", zap.String("path", memProfPath))
			f, err := os.Create(memProfPath)
			if err != nil {
				logger.Error("could not create memory profile", zap.Error(err))
				return
			}
			defer f.Close()
			runtime.GC() // up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Error("could not write memory profile", zap.Error(err))
			}
		})
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}, nil
}
