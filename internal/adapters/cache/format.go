package cache

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	magic     = "LTHC"
	version   = 1
	fileExt   = ".bin"
	maxStem   = 120
	sumLength = 8
)

// fileName maps a key to its file name. Keys that are not file-system safe as-is
// keep a sanitized stem plus the hash of the raw key.
func fileName(key string) string {
	var b strings.Builder
	lossy := key == "" || len(key) > maxStem
	for i, r := range key {
		if i >= maxStem {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			lossy = true
		}
	}
	if lossy {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(xxhash.Sum64String(key), 16))
	}
	b.WriteString(fileExt)
	return b.String()
}

// encode lays out an entry as magic, version, key, env, source time and payload,
// followed by an xxhash checksum of everything before it.
func encode(key string, payload []byte, stamp domain.Stamp) []byte {
	buf := make([]byte, 0, len(magic)+1+len(key)+len(stamp.Env)+len(payload)+4*binary.MaxVarintLen64+sumLength)
	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = appendBytes(buf, []byte(key))
	buf = appendBytes(buf, []byte(stamp.Env))
	buf = binary.AppendVarint(buf, stamp.SourceTime)
	buf = appendBytes(buf, payload)
	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))
}

func decode(data []byte) (string, []byte, domain.Stamp, error) {
	var stamp domain.Stamp
	if len(data) < len(magic)+1+sumLength || !bytes.HasPrefix(data, []byte(magic)) || data[len(magic)] != version {
		return "", nil, stamp, domain.ErrCacheEntryCorrupt
	}
	body, sum := data[:len(data)-sumLength], data[len(data)-sumLength:]
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(sum) {
		return "", nil, stamp, zerr.Wrap(domain.ErrCacheEntryCorrupt, "checksum mismatch")
	}

	r := body[len(magic)+1:]
	key, r, ok := readBytes(r)
	if !ok {
		return "", nil, stamp, domain.ErrCacheEntryCorrupt
	}
	env, r, ok := readBytes(r)
	if !ok {
		return "", nil, stamp, domain.ErrCacheEntryCorrupt
	}
	t, n := binary.Varint(r)
	if n <= 0 {
		return "", nil, stamp, domain.ErrCacheEntryCorrupt
	}
	payload, r, ok := readBytes(r[n:])
	if !ok || len(r) != 0 {
		return "", nil, stamp, domain.ErrCacheEntryCorrupt
	}
	stamp = domain.Stamp{Env: string(env), SourceTime: t}
	return string(key), payload, stamp, nil
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func readBytes(r []byte) ([]byte, []byte, bool) {
	n, k := binary.Uvarint(r)
	if k <= 0 || n > uint64(len(r)-k) {
		return nil, nil, false
	}
	end := k + int(n)
	return r[k:end:end], r[end:], true
}
