package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	// NanoidSize is the length of dossier ids. Exports from the browser
	// version carry 7 character ids, both shapes are accepted on import.
	NanoidSize     = 12
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func NanoIDSize(size int) string {
	if size == 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
