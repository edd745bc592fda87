package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to the database in WAL or
// rollback-journal mode.
var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

// DiskUsage is the on-disk footprint of a SQLite deployment, per artifact.
type DiskUsage struct {
	Database  int64 `json:"database"`
	NameIndex int64 `json:"name_index"`
	Snapshot  int64 `json:"snapshot"`
	Total     int64 `json:"total"`
}

// MeasureDiskUsage sizes the database file (with its sidecars), the Bleve
// name index directory and the vector snapshot. Empty or missing paths count
// as zero.
func MeasureDiskUsage(databasePath, nameIndexPath, snapshotPath string) (DiskUsage, error) {
	var u DiskUsage
	var err error
	if databasePath != "" {
		for _, suffix := range append([]string{""}, sqliteSidecars...) {
			n, err := pathSize(databasePath + suffix)
			if err != nil {
				return DiskUsage{}, err
			}
			u.Database += n
		}
	}
	if u.NameIndex, err = pathSize(nameIndexPath); err != nil {
		return DiskUsage{}, err
	}
	if u.Snapshot, err = pathSize(snapshotPath); err != nil {
		return DiskUsage{}, err
	}
	u.Total = u.Database + u.NameIndex + u.Snapshot
	return u, nil
}

// pathSize returns the size of a file, or the summed size of every file under
// a directory.
func pathSize(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
