package payload

import "savekeep/internal/domain/progress"

// Codec turns records into the bytes a backend stores. The zero value writes
// plain JSON.
type Codec struct {
	sealer *Sealer
}

func Plain() Codec {
	return Codec{}
}

func Sealed(s *Sealer) Codec {
	return Codec{sealer: s}
}

// New builds a sealed codec when encrypt is set, otherwise a plain one.
func New(encrypt bool, passphrase string) (Codec, error) {
	if !encrypt {
		return Plain(), nil
	}
	s, err := NewSealer(passphrase)
	if err != nil {
		return Codec{}, err
	}
	return Sealed(s), nil
}

func (c Codec) Encrypted() bool {
	return c.sealer != nil
}

func (c Codec) Encode(r progress.Record) ([]byte, error) {
	b, err := progress.Encode(r)
	if err != nil {
		return nil, err
	}
	if c.sealer == nil {
		return b, nil
	}
	return c.sealer.Seal(b)
}

func (c Codec) Decode(b []byte) (progress.Record, error) {
	if c.sealer != nil {
		plain, err := c.sealer.Open(b)
		if err != nil {
			return progress.Record{}, err
		}
		b = plain
	}
	return progress.Decode(b)
}
