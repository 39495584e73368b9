package identity

import (
	"encoding/hex"
	"strings"
)

var fallbackPrimes = [8]uint32{
	2654435761,
	2246822519,
	3266489917,
	668265263,
	374761393,
	3432918353,
	461845907,
	1540483477,
}

// FallbackHash детерминированный некриптографический хеш.
// Каждая из восьми полос прогоняет 32-битный накопитель через свой простой множитель,
// результат: 64 шестнадцатеричных символа. Годится как ключ устройства, не как секрет.
func FallbackHash(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(fallbackPrimes) * 8)

	var buf [4]byte
	for i, p := range fallbackPrimes {
		h := uint32(2166136261) ^ (uint32(i+1) * p)
		for _, c := range data {
			h ^= uint32(c)
			h *= p
			h ^= h >> 15
		}
		h ^= uint32(len(data))
		h *= fallbackPrimes[(i+1)%len(fallbackPrimes)]
		h ^= h >> 13

		buf[0] = byte(h >> 24)
		buf[1] = byte(h >> 16)
		buf[2] = byte(h >> 8)
		buf[3] = byte(h)
		sb.WriteString(hex.EncodeToString(buf[:]))
	}

	return sb.String()
}
