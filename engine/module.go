package engine

import "bytes"

const (
	sectionMemory = 0x05
	sectionExport = 0x07
	exportMemory  = 0x02
	limitsMinOnly = 0x00
	limitsMinMax  = 0x01
)

// memoryModule encodes a core module that declares one memory and exports
// it as "memory". max == 0 leaves the maximum open.
func memoryModule(min, max uint32) []byte {
	var mem bytes.Buffer
	writeLEB128u(&mem, 1)
	if max == 0 {
		mem.WriteByte(limitsMinOnly)
		writeLEB128u(&mem, min)
	} else {
		mem.WriteByte(limitsMinMax)
		writeLEB128u(&mem, min)
		writeLEB128u(&mem, max)
	}

	var exp bytes.Buffer
	writeLEB128u(&exp, 1)
	writeName(&exp, "memory")
	exp.WriteByte(exportMemory)
	writeLEB128u(&exp, 0)

	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // magic
	out.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version
	writeSection(&out, sectionMemory, mem.Bytes())
	writeSection(&out, sectionExport, exp.Bytes())
	return out.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, body []byte) {
	w.WriteByte(id)
	writeLEB128u(w, uint32(len(body)))
	w.Write(body)
}

func writeName(w *bytes.Buffer, name string) {
	writeLEB128u(w, uint32(len(name)))
	w.WriteString(name)
}

func writeLEB128u(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			break
		}
	}
}
