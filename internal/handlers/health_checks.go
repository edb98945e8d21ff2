package handlers

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
)

const bytesPerMB = 1 << 20

// MemoryHeapCheck fails when the Go heap in use exceeds maxBytes.
func MemoryHeapCheck(maxBytes uint64) HealthCheck {
	return HealthCheck{
		Name:  "memory_heap",
		Probe: maxBytesProbe("heap", maxBytes, heapInUse),
	}
}

// MemoryRSSCheck fails when the resident set size of the process exceeds
// maxBytes.
func MemoryRSSCheck(maxBytes uint64) HealthCheck {
	return HealthCheck{
		Name:  "memory_rss",
		Probe: maxBytesProbe("rss", maxBytes, processRSS),
	}
}

// DiskStorageCheck fails when the filesystem holding path is more than
// maxUsed (0..1) full.
func DiskStorageCheck(path string, maxUsed float64) HealthCheck {
	return HealthCheck{
		Name: "storage",
		Probe: func(ctx context.Context) error {
			usage, err := disk.UsageWithContext(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to read disk usage of %s: %w", path, err)
			}
			return checkDiskUsage(path, usage.UsedPercent/100, maxUsed)
		},
	}
}

func maxBytesProbe(label string, maxBytes uint64, read func(ctx context.Context) (uint64, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		current, err := read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", label, err)
		}
		if current > maxBytes {
			return fmt.Errorf("%s %dMB exceeds limit %dMB", label, current/bytesPerMB, maxBytes/bytesPerMB)
		}
		return nil
	}
}

func checkDiskUsage(path string, used, maxUsed float64) error {
	if used > maxUsed {
		return fmt.Errorf("disk %s is %.1f%% full, limit %.1f%%", path, used*100, maxUsed*100)
	}
	return nil
}

func heapInUse(context.Context) (uint64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc, nil
}

func processRSS(ctx context.Context) (uint64, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
