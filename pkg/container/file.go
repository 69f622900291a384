package container

import (
	"os"
	"path/filepath"
)

// appendToFile appends data to path in a single write and fsyncs. The file
// is created if absent. It returns the offset the data was written at.
func appendToFile(path string, data []byte) (int64, error) {
	if err := ensureDir(path); err != nil {
		return 0, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}
	offset := stat.Size()

	if _, err := file.Write(data); err != nil {
		return 0, err
	}
	if err := file.Sync(); err != nil {
		return 0, err
	}

	return offset, nil
}

// openForScan opens path for reading, creating an empty file if absent, and
// returns the file with its current size
func openForScan(path string) (*os.File, int64, error) {
	if err := ensureDir(path); err != nil {
		return nil, 0, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, 0, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, stat.Size(), nil
}

// fileSize returns the size of path, or 0 if it does not exist
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
