package utils

import (
	"io"
	"os"
	"strings"
)

// ReadPiped reads everything from f when it is a pipe or a file.
// A terminal yields "" instead of blocking. Only the trailing line break is
// dropped; other whitespace belongs to the value.
func ReadPiped(f *os.File) (string, error) {
	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}

	if stat.Mode().IsRegular() && stat.Size() == 0 {
		return "", nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	value := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(value, "\r"), nil
}
