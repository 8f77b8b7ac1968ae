package fileutil

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy-and-remove when the two
// paths live on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return os.Remove(src)
}

// ExtractZipMembers extracts exactly the named members of a zip archive into
// destDir. Every requested member must be present.
func ExtractZipMembers(zipPath, destDir string, names ...string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer reader.Close()

	wanted := make(map[string]*zip.File, len(names))
	for _, file := range reader.File {
		for _, name := range names {
			if file.Name == name {
				wanted[name] = file
			}
		}
	}

	var missing []string
	for _, name := range names {
		if _, ok := wanted[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("archive %s is missing %s", zipPath, strings.Join(missing, ", "))
	}

	for _, name := range names {
		if err := extractMember(wanted[name], filepath.Join(destDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func extractMember(file *zip.File, dest string) error {
	in, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive member %s: %w", file.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("extract %s: %w", file.Name, err)
	}
	return out.Close()
}
