package fs

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/vellum/pkg/core"
)

const (
	// DocumentExt is the extension of every document file.
	DocumentExt = ".json"

	// shardWidth is the number of identifier characters per directory level.
	shardWidth = 3
	// shardDepth is the number of directory levels above a document file.
	shardDepth = 3
	// minIDLength is the shortest identifier that can be sharded.
	minIDLength = shardWidth * shardDepth
)

// ShardPath maps an identifier to its path relative to a namespace
// directory: id[0:3]/id[3:6]/id[6:9]/<id>.json. It is a pure function of id.
func ShardPath(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(id[0:3], id[3:6], id[6:9], id+DocumentExt), nil
}

// ValidateID checks that id can name a document: at least nine characters,
// all ASCII letters or digits.
func ValidateID(id string) error {
	if len(id) < minIDLength {
		return fmt.Errorf("%w: identifier %q is shorter than %d characters", core.ErrValidation, id, minIDLength)
	}
	for i := 0; i < len(id); i++ {
		if !isAlnum(id[i]) {
			return fmt.Errorf("%w: identifier %q contains %q", core.ErrValidation, id, id[i])
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
