package soundfont

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// Read decodes a complete SoundFont-2 bank from r. The outer RIFF
// container and its "sfbk" form type are validated with go-audio/riff;
// the LIST/sub-chunk hierarchy beneath it (INFO, sdta, pdta) is specific
// to SoundFont and is walked by hand.
func Read(r io.Reader) (*SoundFont, error) {
	parser := riff.New(r)
	if err := parser.ParseHeader(); err != nil {
		return nil, &LoadError{Kind: ErrNotRIFF, Message: err.Error(), Cause: err}
	}
	if string(parser.ID[:]) != "RIFF" {
		return nil, &LoadError{Kind: ErrNotRIFF, Message: fmt.Sprintf("unexpected RIFF id %q", parser.ID)}
	}
	if string(parser.Format[:]) != "sfbk" {
		return nil, &LoadError{Kind: ErrNotSoundFont, Message: fmt.Sprintf("unexpected form type %q", parser.Format)}
	}

	sf := &SoundFont{}
	var pdta pdtaChunks

	for {
		chunk, err := parser.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
		tag := string(chunk.ID[:])
		if tag != "LIST" {
			chunk.Drain()
			continue
		}
		body := make([]byte, chunk.Size)
		if _, err := io.ReadFull(chunk.R, body); err != nil {
			return nil, &LoadError{Chunk: tag, Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
		if len(body) < 4 {
			return nil, &LoadError{Chunk: tag, Kind: ErrUnexpectedChunkSize, Message: "LIST chunk shorter than its form tag"}
		}
		listType := string(body[0:4])
		subs, err := walkSubChunks(body[4:])
		if err != nil {
			return nil, &LoadError{Chunk: listType, Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
		switch listType {
		case "INFO":
			if name, ok := subs["INAM"]; ok {
				sf.Name = cString(name)
			}
		case "sdta":
			if smpl, ok := subs["smpl"]; ok {
				pdta.smpl = smpl
			}
		case "pdta":
			if err := pdta.fill(subs); err != nil {
				return nil, err
			}
		}
	}

	if pdta.shdr == nil || pdta.phdr == nil || pdta.inst == nil {
		return nil, &LoadError{Kind: ErrMissingChunk, Message: "pdta list missing phdr/inst/shdr"}
	}

	samples, err := decodeSamples(pdta.shdr, pdta.smpl)
	if err != nil {
		return nil, err
	}
	sf.Samples = samples

	instruments, err := decodeInstruments(pdta.inst, pdta.ibag, pdta.igen)
	if err != nil {
		return nil, err
	}
	sf.Instruments = instruments

	presets, err := decodePresets(pdta.phdr, pdta.pbag, pdta.pgen)
	if err != nil {
		return nil, err
	}
	sf.Presets = presets

	return sf, nil
}

// walkSubChunks splits the body of a LIST chunk into its flat sequence of
// (tag, payload) sub-chunks, padding each to an even boundary per RIFF's
// word-alignment rule.
func walkSubChunks(body []byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	r := bytes.NewReader(body)
	for r.Len() > 0 {
		if r.Len() < 8 {
			return nil, fmt.Errorf("trailing %d bytes too short for a chunk header", r.Len())
		}
		var tag [4]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, err
		}
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("chunk %q: %w", tag, err)
		}
		out[string(tag[:])] = payload
		if size%2 == 1 {
			r.Seek(1, io.SeekCurrent)
		}
	}
	return out, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

type pdtaChunks struct {
	smpl                                           []byte
	phdr, pbag, pmod, pgen, inst, ibag, imod, igen []byte
	shdr                                            []byte
}

func (p *pdtaChunks) fill(subs map[string][]byte) error {
	p.phdr = subs["phdr"]
	p.pbag = subs["pbag"]
	p.pmod = subs["pmod"]
	p.pgen = subs["pgen"]
	p.inst = subs["inst"]
	p.ibag = subs["ibag"]
	p.imod = subs["imod"]
	p.igen = subs["igen"]
	p.shdr = subs["shdr"]
	return nil
}

const (
	phdrRecordSize = 38
	pbagRecordSize = 4
	pgenRecordSize = 4
	instRecordSize = 22
	ibagRecordSize = 4
	igenRecordSize = 4
	shdrRecordSize = 46
)

type rawPhdr struct {
	Name              [20]byte
	Preset, Bank      uint16
	PresetBagNdx      uint16
	Library, Genre, Morphology uint32
}

type rawBag struct {
	GenNdx, ModNdx uint16
}

type rawGen struct {
	Oper   uint16
	Amount uint16
}

type rawInst struct {
	Name      [20]byte
	InstBagNdx uint16
}

type rawShdr struct {
	Name                                        [20]byte
	Start, End, StartLoop, EndLoop, SampleRate uint32
	OriginalPitch                               uint8
	PitchCorrection                             int8
	LinkedSample                                uint16 // wSampleLink: paired stereo sample's index
	SampleType                                  uint16 // sfSampleType: mono/left/right/linked/rom bitfield
}

func decodeSamples(shdr, smpl []byte) ([]Sample, error) {
	n := len(shdr) / shdrRecordSize
	if n == 0 {
		return nil, &LoadError{Chunk: "shdr", Kind: ErrUnexpectedChunkSize, Message: "empty shdr chunk"}
	}
	samples := make([]Sample, 0, n-1) // last record is the terminal sentinel
	r := bytes.NewReader(shdr)
	for i := 0; i < n-1; i++ {
		var rec rawShdr
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, &LoadError{Chunk: "shdr", Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
		var data []int16
		if smpl != nil {
			startByte := int(rec.Start) * 2
			endByte := int(rec.End) * 2
			if startByte >= 0 && endByte <= len(smpl) && startByte <= endByte {
				raw := smpl[startByte:endByte]
				data = make([]int16, len(raw)/2)
				for j := range data {
					data[j] = int16(binary.LittleEndian.Uint16(raw[j*2:]))
				}
			}
		}
		samples = append(samples, Sample{
			Name:            cString(rec.Name[:]),
			Data:            data,
			Start:           rec.Start,
			LoopStart:       rec.StartLoop - rec.Start,
			LoopEnd:         rec.EndLoop - rec.Start,
			SampleRate:      rec.SampleRate,
			OriginalPitch:   rec.OriginalPitch,
			PitchCorrection: rec.PitchCorrection,
			SampleLink:      SampleLink(rec.SampleType),
			LinkedSampleID:  rec.LinkedSample,
		})
	}
	return samples, nil
}

func decodeZones(bag, gen []byte) ([][]Zone, error) {
	bagCount := len(bag) / pbagRecordSize
	if bagCount == 0 {
		return nil, &LoadError{Chunk: "bag", Kind: ErrUnexpectedChunkSize, Message: "empty bag chunk"}
	}
	bags := make([]rawBag, bagCount)
	br := bytes.NewReader(bag)
	for i := range bags {
		if err := binary.Read(br, binary.LittleEndian, &bags[i]); err != nil {
			return nil, &LoadError{Chunk: "bag", Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
	}

	genCount := len(gen) / pgenRecordSize
	gens := make([]rawGen, genCount)
	gr := bytes.NewReader(gen)
	for i := range gens {
		if err := binary.Read(gr, binary.LittleEndian, &gens[i]); err != nil {
			return nil, &LoadError{Chunk: "gen", Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
	}

	result := make([][]Zone, bagCount-1)
	for i := 0; i < bagCount-1; i++ {
		loGen, hiGen := bags[i].GenNdx, bags[i+1].GenNdx
		if int(hiGen) > len(gens) || loGen > hiGen {
			return nil, &LoadError{Chunk: "bag", Kind: ErrSanityCheckFailed, Message: "generator index range out of bounds"}
		}
		set := NewGeneratorSet()
		for _, g := range gens[loGen:hiGen] {
			set.Set(GeneratorType(g.Oper), GenAmountFromRaw(g.Amount))
		}
		result[i] = []Zone{{Generators: set}}
	}
	return result, nil
}

func decodeInstruments(inst, ibag, igen []byte) ([]Instrument, error) {
	n := len(inst) / instRecordSize
	if n == 0 {
		return nil, &LoadError{Chunk: "inst", Kind: ErrUnexpectedChunkSize, Message: "empty inst chunk"}
	}
	recs := make([]rawInst, n)
	r := bytes.NewReader(inst)
	for i := range recs {
		if err := binary.Read(r, binary.LittleEndian, &recs[i]); err != nil {
			return nil, &LoadError{Chunk: "inst", Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
	}
	zonesByBagRange, err := decodeBagRangedZones(ibag, igen)
	if err != nil {
		return nil, err
	}
	instruments := make([]Instrument, 0, n-1)
	for i := 0; i < n-1; i++ {
		lo, hi := recs[i].InstBagNdx, recs[i+1].InstBagNdx
		instruments = append(instruments, Instrument{
			Name:  cString(recs[i].Name[:]),
			Zones: zonesByBagRange(lo, hi),
		})
	}
	return instruments, nil
}

func decodePresets(phdr, pbag, pgen []byte) ([]Preset, error) {
	n := len(phdr) / phdrRecordSize
	if n == 0 {
		return nil, &LoadError{Chunk: "phdr", Kind: ErrUnexpectedChunkSize, Message: "empty phdr chunk"}
	}
	recs := make([]rawPhdr, n)
	r := bytes.NewReader(phdr)
	for i := range recs {
		if err := binary.Read(r, binary.LittleEndian, &recs[i]); err != nil {
			return nil, &LoadError{Chunk: "phdr", Kind: ErrTruncatedChunk, Message: err.Error(), Cause: err}
		}
	}
	zonesByBagRange, err := decodeBagRangedZones(pbag, pgen)
	if err != nil {
		return nil, err
	}
	presets := make([]Preset, 0, n-1)
	for i := 0; i < n-1; i++ {
		lo, hi := recs[i].PresetBagNdx, recs[i+1].PresetBagNdx
		presets = append(presets, Preset{
			Name:    cString(recs[i].Name[:]),
			Bank:    recs[i].Bank,
			Program: recs[i].Preset,
			Zones:   zonesByBagRange(lo, hi),
		})
	}
	return presets, nil
}

// decodeBagRangedZones decodes every (bag, gen) pair into one Zone each,
// and returns a closure that slices the resulting zone list by a
// [lo, hi) bag-index range — shared logic between presets and instruments,
// which differ only in which bag/gen chunk pair and header record feed it.
func decodeBagRangedZones(bag, gen []byte) (func(lo, hi uint16) []Zone, error) {
	zoneGroups, err := decodeZones(bag, gen)
	if err != nil {
		return nil, err
	}
	flat := make([]Zone, len(zoneGroups))
	for i, g := range zoneGroups {
		if len(g) > 0 {
			flat[i] = g[0]
		}
	}
	return func(lo, hi uint16) []Zone {
		if int(hi) > len(flat) || lo > hi {
			return nil
		}
		out := make([]Zone, hi-lo)
		copy(out, flat[lo:hi])
		return out
	}, nil
}
