package soundfont

// SampleLink distinguishes mono samples from the two halves of a stereo
// pair, matching the SoundFont 2.04 sample-type bitfield.
type SampleLink uint16

const (
	MonoSample             SampleLink = 1
	RightSample            SampleLink = 2
	LeftSample             SampleLink = 4
	LinkedSample           SampleLink = 8
	RomMonoSample          SampleLink = 0x8001
	RomRightSample         SampleLink = 0x8002
	RomLeftSample          SampleLink = 0x8004
	RomLinkedSample        SampleLink = 0x8008
)

// Sample is one PCM recording in the soundfont's sample pool.
type Sample struct {
	Name          string
	Data          []int16 // mono 16-bit PCM, sample rate SampleRate
	Start         uint32  // absolute start offset into the original sdta chunk (informational)
	LoopStart     uint32  // offsets relative to Data
	LoopEnd       uint32
	SampleRate    uint32
	OriginalPitch uint8 // MIDI key whose playback rate is 1:1
	PitchCorrection int8 // cents
	SampleLink    SampleLink
	LinkedSampleID uint16
}

// Zone is one (key-range, velocity-range)-scoped generator set. Modulators
// are not decoded: a zone carries its generators only.
type Zone struct {
	Generators GeneratorSet
}

// KeyRange returns the zone's key-range generator, or the full range if
// absent.
func (z Zone) KeyRange() (lo, hi uint8) {
	if a, ok := z.Generators.Get(GenKeyRange); ok {
		return a.LoRange(), a.HiRange()
	}
	return 0, 127
}

// VelRange returns the zone's velocity-range generator, or the full range
// if absent.
func (z Zone) VelRange() (lo, hi uint8) {
	if a, ok := z.Generators.Get(GenVelRange); ok {
		return a.LoRange(), a.HiRange()
	}
	return 0, 127
}

func (z Zone) matches(key, velocity uint8) bool {
	klo, khi := z.KeyRange()
	vlo, vhi := z.VelRange()
	return key >= klo && key <= khi && velocity >= vlo && velocity <= vhi
}

// Instrument is a named collection of zones, each selecting (via its
// sampleID generator) one Sample.
type Instrument struct {
	Name  string
	Zones []Zone
}

// Preset is a named (bank, program) pair and a collection of zones, each
// selecting (via its instrument generator) one Instrument.
type Preset struct {
	Name    string
	Bank    uint16
	Program uint16
	Zones   []Zone
}

// SoundFont is the fully decoded tree: samples, instruments, presets.
type SoundFont struct {
	Name        string
	Samples     []Sample
	Instruments []Instrument
	Presets     []Preset
}

// FindPreset returns the preset matching (bank, program), or ok=false.
func (sf *SoundFont) FindPreset(bank, program uint16) (*Preset, bool) {
	for i := range sf.Presets {
		if sf.Presets[i].Bank == bank && sf.Presets[i].Program == program {
			return &sf.Presets[i], true
		}
	}
	return nil, false
}

// RegionPair is the additive composition of one matching preset-zone and
// one matching instrument-zone: every generator index summed between the
// two, selector generators excepted.
type RegionPair struct {
	Generators GeneratorSet
	Sample     *Sample
}

// nonAdditiveGenerators are the selector generators that identify which
// instrument/sample a zone refers to, or which key/velocity range it
// applies over — these never propagate from the preset zone into the
// region at all (the instrument zone's own selector is what the region
// is built around), let alone sum with it.
var nonAdditiveGenerators = map[GeneratorType]bool{
	GenInstrument: true,
	GenSampleID:   true,
	GenKeyRange:   true,
	GenVelRange:   true,
}

// composeGenerators sums every generator index present in either zone,
// the SoundFont-2 "additive composition" rule applied uniformly (as the
// format's fixed-length array of 60 signed 16-bit generator amounts
// implies), except the selector generators in nonAdditiveGenerators,
// which only ever come from the instrument zone and are never summed.
func composeGenerators(presetGen, instGen GeneratorSet) GeneratorSet {
	out := NewGeneratorSet()
	for t, a := range instGen.values {
		out.values[t] = a
	}
	for t, pa := range presetGen.values {
		if nonAdditiveGenerators[t] {
			continue // selector generators never propagate into the region
		}
		if ia, ok := instGen.values[t]; ok {
			out.values[t] = GenAmount{raw: uint16(int16(ia.raw) + int16(pa.raw))}
			continue
		}
		out.values[t] = pa
	}
	return out
}

// MatchRegions returns every RegionPair whose preset- and instrument-zone
// key/velocity ranges both contain (key, velocity), for the given preset.
func (sf *SoundFont) MatchRegions(preset *Preset, key, velocity uint8) []RegionPair {
	var regions []RegionPair
	globalPresetZones, presetZones := splitGlobalZone(preset.Zones, GenInstrument)

	for _, pz := range presetZones {
		if !pz.matches(key, velocity) {
			continue
		}
		instIdx, ok := pz.Generators.Get(GenInstrument)
		if !ok || int(instIdx.AsUint16()) >= len(sf.Instruments) {
			continue
		}
		inst := &sf.Instruments[instIdx.AsUint16()]
		globalInstZones, instZones := splitGlobalZone(inst.Zones, GenSampleID)

		presetGen := presetZoneGenerators(globalPresetZones, pz)

		for _, iz := range instZones {
			if !iz.matches(key, velocity) {
				continue
			}
			sampleIdx, ok := iz.Generators.Get(GenSampleID)
			if !ok || int(sampleIdx.AsUint16()) >= len(sf.Samples) {
				continue
			}
			instGen := instZoneGenerators(globalInstZones, iz)
			regions = append(regions, RegionPair{
				Generators: composeGenerators(presetGen, instGen),
				Sample:     &sf.Samples[sampleIdx.AsUint16()],
			})
		}
	}
	return regions
}

// splitGlobalZone separates a SoundFont-2 "global zone" — a leading zone
// with no selector generator (instrument, for preset zones; sampleID, for
// instrument zones) — from the rest, which carry the selector. A global
// zone's generators apply as defaults to every other zone in the list.
func splitGlobalZone(zones []Zone, selector GeneratorType) (global *Zone, rest []Zone) {
	if len(zones) == 0 {
		return nil, nil
	}
	if _, ok := zones[0].Generators.Get(selector); !ok {
		return &zones[0], zones[1:]
	}
	return nil, zones
}

func presetZoneGenerators(global *Zone, zone Zone) GeneratorSet {
	if global == nil {
		return zone.Generators
	}
	return Merge(global.Generators, zone.Generators)
}

func instZoneGenerators(global *Zone, zone Zone) GeneratorSet {
	if global == nil {
		return zone.Generators
	}
	return Merge(global.Generators, zone.Generators)
}
