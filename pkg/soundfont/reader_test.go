package soundfont

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func name20(s string) [20]byte {
	var out [20]byte
	copy(out[:], s)
	return out
}

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func chunk(tag string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	buf.Write(u32le(uint32(len(payload))))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func list(formType string, subchunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString(formType)
	for _, c := range subchunks {
		body.Write(c)
	}
	return chunk("LIST", body.Bytes())
}

// buildFixture constructs a minimal single-sample, single-instrument,
// single-preset SF2 file: a one-cycle sine-ish four-sample mono loop,
// mapped across the whole keyboard at full velocity range.
func buildFixture(t *testing.T) []byte {
	t.Helper()

	pcm := []int16{0, 16384, 0, -16384}
	var smplBuf bytes.Buffer
	for _, s := range pcm {
		smplBuf.Write(u16le(uint16(s)))
	}
	// SoundFont requires at least 46 zero samples of silence after the
	// last real sample; a short run is enough for this fixture.
	for i := 0; i < 8; i++ {
		smplBuf.Write(u16le(0))
	}

	var shdr bytes.Buffer
	shdr.Write(name20("TestSample"))
	shdr.Write(u32le(0))     // start
	shdr.Write(u32le(4))     // end
	shdr.Write(u32le(1))     // startloop
	shdr.Write(u32le(3))     // endloop
	shdr.Write(u32le(44100)) // sample rate
	shdr.WriteByte(60)       // original pitch
	shdr.WriteByte(0)        // pitch correction
	shdr.Write(u16le(0))     // linked sample
	shdr.Write(u16le(uint16(MonoSample)))
	// terminal sentinel record: all zero, fixed 46-byte width
	shdr.Write(make([]byte, 46))
	shdrBytes := shdr.Bytes()

	var igen bytes.Buffer
	igen.Write(u16le(uint16(GenKeyRange)))
	igen.Write(u16le(0x7F00)) // lo=0 (low byte), hi=127 (high byte)
	igen.Write(u16le(uint16(GenSampleID)))
	igen.Write(u16le(0))

	var ibag bytes.Buffer
	ibag.Write(u16le(0)) // genNdx
	ibag.Write(u16le(0)) // modNdx
	ibag.Write(u16le(2)) // terminal: genNdx == total gen count
	ibag.Write(u16le(0))

	var inst bytes.Buffer
	inst.Write(name20("TestInstrument"))
	inst.Write(u16le(0))
	inst.Write(name20("EOI"))
	inst.Write(u16le(1))

	var pgen bytes.Buffer
	pgen.Write(u16le(uint16(GenInstrument)))
	pgen.Write(u16le(0))

	var pbag bytes.Buffer
	pbag.Write(u16le(0))
	pbag.Write(u16le(0))
	pbag.Write(u16le(1))
	pbag.Write(u16le(0))

	var phdr bytes.Buffer
	phdr.Write(name20("TestPreset"))
	phdr.Write(u16le(0)) // preset (program)
	phdr.Write(u16le(0)) // bank
	phdr.Write(u16le(0)) // presetBagNdx
	phdr.Write(u32le(0))
	phdr.Write(u32le(0))
	phdr.Write(u32le(0))
	phdr.Write(name20("EOP"))
	phdr.Write(u16le(0))
	phdr.Write(u16le(0))
	phdr.Write(u16le(1))
	phdr.Write(u32le(0))
	phdr.Write(u32le(0))
	phdr.Write(u32le(0))

	info := list("INFO", chunk("INAM", []byte("Fixture\x00")))
	sdta := list("sdta", chunk("smpl", smplBuf.Bytes()))
	pdta := list("pdta",
		chunk("phdr", phdr.Bytes()),
		chunk("pbag", pbag.Bytes()),
		chunk("pgen", pgen.Bytes()),
		chunk("inst", inst.Bytes()),
		chunk("ibag", ibag.Bytes()),
		chunk("igen", igen.Bytes()),
		chunk("shdr", shdrBytes),
	)

	var form bytes.Buffer
	form.WriteString("sfbk")
	form.Write(info)
	form.Write(sdta)
	form.Write(pdta)

	return chunk("RIFF", form.Bytes())
}

func TestReadFixture(t *testing.T) {
	data := buildFixture(t)
	sf, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sf.Name != "Fixture" {
		t.Errorf("Name = %q, want Fixture", sf.Name)
	}
	if len(sf.Samples) != 1 {
		t.Fatalf("len(Samples) = %d, want 1", len(sf.Samples))
	}
	if len(sf.Samples[0].Data) != 4 {
		t.Errorf("len(Samples[0].Data) = %d, want 4", len(sf.Samples[0].Data))
	}
	if len(sf.Instruments) != 1 || len(sf.Presets) != 1 {
		t.Fatalf("got %d instruments, %d presets, want 1 and 1", len(sf.Instruments), len(sf.Presets))
	}

	preset, ok := sf.FindPreset(0, 0)
	if !ok {
		t.Fatal("FindPreset(0, 0) not found")
	}
	regions := sf.MatchRegions(preset, 60, 100)
	if len(regions) != 1 {
		t.Fatalf("MatchRegions = %d regions, want 1", len(regions))
	}
	if regions[0].Sample.Name != "TestSample" {
		t.Errorf("region sample = %q, want TestSample", regions[0].Sample.Name)
	}
}

func TestReadRejectsNonRIFF(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not a riff file"))); err == nil {
		t.Fatal("expected an error reading a non-RIFF stream")
	}
}
