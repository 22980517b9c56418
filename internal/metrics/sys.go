package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SysHealth represents real-time process and storage metrics.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DataBytes    int64  `json:"data_bytes"`
	DataDiskSize string `json:"data_disk_size"`
}

// GetSysHealth collects health data. dataPaths are the database file and
// snapshot directory; missing paths count as empty.
func GetSysHealth(dataPaths ...string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var size int64
	for _, p := range dataPaths {
		size += pathSize(p)
	}

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataBytes:    size,
		DataDiskSize: humanBytes(size),
	}
}

// String renders the health report for chat surfaces.
func (h SysHealth) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Memory: %d MB allocated, %d MB from OS\n", h.AllocMB, h.SysMB)
	fmt.Fprintf(&sb, "GC cycles: %d\n", h.NumGC)
	fmt.Fprintf(&sb, "Goroutines: %d\n", h.Goroutines)
	fmt.Fprintf(&sb, "Data on disk: %s", h.DataDiskSize)
	return sb.String()
}

func pathSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func humanBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
