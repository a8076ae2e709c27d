package wotscript

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/hashicorp/go-multierror"

	"github.com/bwesterb/go-wotscript/script"
)

type HashFunc uint8

const (
	HASH160 HashFunc = 0 // RIPEMD-160 over SHA-256; 20 byte chain values
	SHA256  HashFunc = 1 // SHA-256; 32 byte chain values
)

func (f HashFunc) String() string {
	switch f {
	case HASH160:
		return "HASH160"
	case SHA256:
		return "SHA256"
	}
	return fmt.Sprintf("HashFunc(%d)", uint8(f))
}

// Upper bound on the number of message digits.  A witness puts two elements
// on the stack per digit and the stack holds at most script.MaxStackSize
// elements.  Validate also checks the exact peak; see maxStackDepth.
const maxMessageDigits = script.MaxStackSize / 2

// Parameters of a WOTS instance
type Params struct {
	Func          HashFunc // which hash function to use for the chains
	MessageDigits uint32   // number of message digits (n0)

	// Bits per message digit: the message base is 2^LogW.
	LogW uint8

	// Bits per checksum digit: the checksum base is 2^ChecksumLogW.
	// The verifier handles a single base only, so it has to equal LogW.
	ChecksumLogW uint8

	// Width of the big-endian position index that is appended to the master
	// secret to derive the seed of a chain.  Zero means one byte, which
	// limits an instance to 256 chains.
	IndexBytes uint8
}

// Entry in the registry of instances
type regEntry struct {
	name   string // name, eg. WOTS-HASH160_W16_40
	params Params // parameters of the instance
}

// Registry of named WOTS instances
var registry []regEntry = []regEntry{
	// 160 bit messages, eg. a HASH160 digest, in nibbles
	{"WOTS-HASH160_W16_40", Params{HASH160, 40, 4, 4, 1}},
	// 256 bit messages in nibbles
	{"WOTS-HASH160_W16_64", Params{HASH160, 64, 4, 4, 1}},
	{"WOTS-HASH160_W4_80", Params{HASH160, 80, 2, 2, 1}},
	{"WOTS-HASH160_W256_20", Params{HASH160, 20, 8, 8, 1}},
	{"WOTS-SHA256_W16_40", Params{SHA256, 40, 4, 4, 1}},
	{"WOTS-SHA256_W16_64", Params{SHA256, 64, 4, 4, 1}},
}

var registryNameLut map[string]regEntry

// Initializes the instance lookup table.
func init() {
	registryNameLut = make(map[string]regEntry)
	for _, entry := range registry {
		registryNameLut[entry.name] = entry
	}
}

// Returns parameters for the named WOTS instance (and nil if there is no
// such instance).
func ParamsFromName(name string) *Params {
	entry, ok := registryNameLut[name]
	if !ok {
		return nil
	}
	ret := entry.params
	return &ret
}

// List all named WOTS instances
func ListNames() (names []string) {
	names = make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return
}

// Returns the name of the registered instance with these parameters and
// an empty string if there is none.
func (params *Params) LookupName() string {
	for _, entry := range registry {
		if entry.params == *params {
			return entry.name
		}
	}
	return ""
}

// Computes the checksum parameters for messages of n0 digits in base d0
// with b bits per checksum digit.  Returns the checksum base d1 = 2^b,
// the number of checksum digits n1 and the largest possible checksum
// n0*(d0-1).  n1 is the least number of digits with d1^n1 > maxChecksum.
//
// Requires d0 >= 1, 1 <= b <= 31 and n0*(d0-1) < 2^32.  Returns zeros
// otherwise.
func ChecksumParams(d0, n0 uint32, b uint8) (d1, n1, maxChecksum uint32) {
	max64 := uint64(n0) * (uint64(d0) - 1)
	if d0 == 0 || b == 0 || b > 31 || max64 > math.MaxUint32 {
		return 0, 0, 0
	}
	d1 = 1 << b
	maxChecksum = uint32(max64)
	length := uint32(bits.Len32(maxChecksum))
	n1 = (length + uint32(b) - 1) / uint32(b)
	if n1 == 0 {
		n1 = 1
	}
	return
}

// Returns the message base d0.
func (params *Params) WotsW() uint32 {
	return 1 << params.LogW
}

// Returns the number of message chains
func (params *Params) WotsLen1() uint32 {
	return params.MessageDigits
}

// Returns the number of checksum chains
func (params *Params) WotsLen2() uint32 {
	_, n1, _ := ChecksumParams(params.WotsW(), params.MessageDigits,
		params.ChecksumLogW)
	return n1
}

// Returns the total number of chains
func (params *Params) WotsLen() uint32 {
	return params.WotsLen1() + params.WotsLen2()
}

// Returns the largest possible checksum.
func (params *Params) MaxChecksum() uint32 {
	return params.MessageDigits * (params.WotsW() - 1)
}

// Returns the length of chain values, public key elements and revealed
// witness values.
func (params *Params) N() uint32 {
	if params.Func == SHA256 {
		return 32
	}
	return 20
}

func (params *Params) indexBytes() uint32 {
	if params.IndexBytes == 0 {
		return 1
	}
	return uint32(params.IndexBytes)
}

// Size of a serialized public key set.
func (params *Params) PublicKeySize() uint32 {
	return params.WotsLen() * params.N()
}

// Size of a serialized witness.
func (params *Params) WitnessSize() uint32 {
	return params.WotsLen() * (params.N() + 1)
}

// Largest number of elements on the main and alt stack together while the
// verifier runs: the witness of the other positions, the revealed value
// with its w hashes, the picked hash, the public key and a stashed digit.
func (params *Params) maxStackDepth() uint64 {
	return 2*uint64(params.WotsLen()) + uint64(params.WotsW()) + 2
}

// Checks the parameters.  Returns all problems at once; each of them is
// an Error.
func (params *Params) Validate() error {
	var result *multierror.Error

	if params.Func != HASH160 && params.Func != SHA256 {
		result = multierror.Append(result, errorf(InvalidParams,
			"unsupported hash function %s", params.Func))
	}
	if params.MessageDigits == 0 || params.MessageDigits > maxMessageDigits {
		result = multierror.Append(result, errorf(InvalidParams,
			"MessageDigits should be between 1 and %d", maxMessageDigits))
	}
	logWOk := params.LogW >= 1 && params.LogW <= 8
	if !logWOk {
		result = multierror.Append(result, errorf(InvalidParams,
			"LogW should be between 1 and 8"))
	}
	if params.ChecksumLogW < 1 || params.ChecksumLogW > 8 {
		result = multierror.Append(result, errorf(InvalidParams,
			"ChecksumLogW should be between 1 and 8"))
	} else if logWOk && params.ChecksumLogW != params.LogW {
		result = multierror.Append(result, errorf(BaseConfigurationMismatch,
			"message base %d differs from checksum base %d",
			params.WotsW(), uint32(1)<<params.ChecksumLogW))
	}
	switch params.IndexBytes {
	case 0, 1, 2, 4:
	default:
		result = multierror.Append(result, errorf(InvalidParams,
			"IndexBytes should be 1, 2 or 4"))
	}

	if result == nil && params.indexBytes() < 4 {
		capacity := uint64(1) << (8 * params.indexBytes())
		if uint64(params.WotsLen()) > capacity {
			result = multierror.Append(result, errorf(DigitWidthMismatch,
				"%d chains do not fit a %d byte position index",
				params.WotsLen(), params.indexBytes()))
		}
	}
	if result == nil && params.maxStackDepth() > script.MaxStackSize {
		result = multierror.Append(result, errorf(DigitWidthMismatch,
			"verifying %d chains of depth %d needs %d stack elements; "+
				"the limit is %d", params.WotsLen(), params.WotsW(),
			params.maxStackDepth(), script.MaxStackSize))
	}

	return result.ErrorOrNil()
}

// Returns the 8 byte encoding of the parameters.
func (params *Params) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	buf[0] = byte(params.Func)
	buf[1] = params.LogW
	buf[2] = params.ChecksumLogW
	buf[3] = params.IndexBytes
	binary.BigEndian.PutUint32(buf[4:], params.MessageDigits)
	return buf, nil
}

// Decodes parameters written by MarshalBinary.  Does not validate them.
func (params *Params) UnmarshalBinary(buf []byte) error {
	if len(buf) != 8 {
		return errorf(InvalidEncoding,
			"encoded parameters should be 8 bytes, not %d", len(buf))
	}
	params.Func = HashFunc(buf[0])
	params.LogW = buf[1]
	params.ChecksumLogW = buf[2]
	params.IndexBytes = buf[3]
	params.MessageDigits = binary.BigEndian.Uint32(buf[4:])
	return nil
}
