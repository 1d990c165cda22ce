package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/hyperio-mc/hyper/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasNamespace byte = 1 << 0
	hasKey       byte = 1 << 1
	hasValue     byte = 1 << 2
	hasDocs      byte = 1 << 3
	hasOk        byte = 1 << 4
	hasStatus    byte = 1 << 5
	hasErr       byte = 1 << 6
	hasMeta      byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle Namespace
	if msg.Namespace != "" {
		flags |= hasNamespace
		pos += writeString(result[pos:], msg.Namespace)
	}

	// Handle Key
	if msg.Key != "" {
		flags |= hasKey
		pos += writeString(result[pos:], msg.Key)
	}

	// Handle Value
	if msg.Value != nil {
		flags |= hasValue
		pos += writeBytes(result[pos:], msg.Value)
	}

	// Handle Docs
	if msg.Docs != nil {
		flags |= hasDocs
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Docs)))
		pos += 4
		for _, doc := range msg.Docs {
			pos += writeBytes(result[pos:], doc)
		}
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Status
	if msg.Status != 0 {
		flags |= hasStatus
		binary.BigEndian.PutUint16(result[pos:pos+2], uint16(msg.Status))
		pos += 2
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos += writeString(result[pos:], msg.Err)
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		pos += writeBytes(result[pos:], msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2

	// Read Namespace if present
	if flags&hasNamespace != 0 {
		s, n, err := readString(data[pos:], "namespace")
		if err != nil {
			return err
		}
		msg.Namespace = s
		pos += n
	} else {
		msg.Namespace = ""
	}

	// Read Key if present
	if flags&hasKey != 0 {
		s, n, err := readString(data[pos:], "key")
		if err != nil {
			return err
		}
		msg.Key = s
		pos += n
	} else {
		msg.Key = ""
	}

	// Read Value if present
	if flags&hasValue != 0 {
		v, n, err := readBytes(data[pos:], "value")
		if err != nil {
			return err
		}
		msg.Value = v
		pos += n
	} else {
		msg.Value = nil
	}

	// Read Docs if present
	if flags&hasDocs != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for docs count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		msg.Docs = make([][]byte, 0, count)
		for i := uint32(0); i < count; i++ {
			doc, n, err := readBytes(data[pos:], "doc")
			if err != nil {
				return err
			}
			msg.Docs = append(msg.Docs, doc)
			pos += n
		}
	} else {
		msg.Docs = nil
	}

	// Read Ok if present
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	// Read Status if present
	if flags&hasStatus != 0 {
		if pos+2 > len(data) {
			return fmt.Errorf("data too short for status code")
		}
		msg.Status = int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2
	} else {
		msg.Status = 0
	}

	// Read Err if present
	if flags&hasErr != 0 {
		s, n, err := readString(data[pos:], "error")
		if err != nil {
			return err
		}
		msg.Err = s
		pos += n
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		v, n, err := readBytes(data[pos:], "meta")
		if err != nil {
			return err
		}
		msg.Meta = v
		pos += n
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeString writes a length-prefixed string and returns the bytes written
func writeString(dst []byte, s string) int {
	binary.BigEndian.PutUint32(dst[:4], uint32(len(s)))
	copy(dst[4:], s)
	return 4 + len(s)
}

// writeBytes writes a length-prefixed byte slice and returns the bytes written
func writeBytes(dst []byte, v []byte) int {
	binary.BigEndian.PutUint32(dst[:4], uint32(len(v)))
	copy(dst[4:], v)
	return 4 + len(v)
}

// readString reads a length-prefixed string and returns it together with
// the number of bytes consumed
func readString(data []byte, field string) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[:4]))
	if 4+n > len(data) {
		return "", 0, fmt.Errorf("data too short for %s data", field)
	}
	return string(data[4 : 4+n]), 4 + n, nil
}

// readBytes reads a length-prefixed byte slice and returns it together with
// the number of bytes consumed
func readBytes(data []byte, field string) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[:4]))
	if 4+n > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s data", field)
	}
	v := make([]byte, n)
	copy(v, data[4:4+n])
	return v, 4 + n, nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Namespace != "" {
		size += 4 + len(msg.Namespace)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Docs != nil {
		size += 4 // doc count
		for _, doc := range msg.Docs {
			size += 4 + len(doc)
		}
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Status != 0 {
		size += 2 // uint16 status code
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}
