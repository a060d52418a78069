package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true}

// FileStore keeps uploaded card images on local disk under Dir.
type FileStore struct {
	Dir string
}

// Save writes the upload under Dir/sub with a random name and returns the
// path relative to Dir.
func (s FileStore) Save(file *multipart.FileHeader, sub string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	destDir := filepath.Join(s.Dir, sub)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(sub, name)), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s FileStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetFileURL maps a stored path to its public URL.
func GetFileURL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/uploads/" + rel
}
