package utils

import "github.com/google/uuid"

// GenerateID returns a new random identifier for records, files and results.
func GenerateID() string {
	return uuid.New().String()
}

// GenerateStorageName returns a collision-free object name keeping the extension.
func GenerateStorageName(ext string) string {
	name := uuid.New().String()
	if ext == "" {
		return name
	}
	return name + "." + ext
}
