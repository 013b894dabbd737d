package soundfont

import "fmt"

// GeneratorType names one of the 60 SoundFont-2 generator slots that a
// preset or instrument zone can set. Values follow the SoundFont 2.04
// specification's generator enumeration verbatim so sample banks produced
// by any compliant editor decode unchanged.
type GeneratorType uint16

const (
	GenStartAddrsOffset          GeneratorType = 0
	GenEndAddrsOffset            GeneratorType = 1
	GenStartloopAddrsOffset      GeneratorType = 2
	GenEndloopAddrsOffset        GeneratorType = 3
	GenStartAddrsCoarseOffset    GeneratorType = 4
	GenModLfoToPitch             GeneratorType = 5
	GenVibLfoToPitch             GeneratorType = 6
	GenModEnvToPitch             GeneratorType = 7
	GenInitialFilterFc           GeneratorType = 8
	GenInitialFilterQ            GeneratorType = 9
	GenModLfoToFilterFc          GeneratorType = 10
	GenModEnvToFilterFc          GeneratorType = 11
	GenEndAddrsCoarseOffset      GeneratorType = 12
	GenModLfoToVolume            GeneratorType = 13
	GenUnused1                   GeneratorType = 14
	GenChorusEffectsSend         GeneratorType = 15
	GenReverbEffectsSend         GeneratorType = 16
	GenPan                       GeneratorType = 17
	GenUnused2                   GeneratorType = 18
	GenUnused3                   GeneratorType = 19
	GenUnused4                   GeneratorType = 20
	GenDelayModLFO               GeneratorType = 21
	GenFreqModLFO                GeneratorType = 22
	GenDelayVibLFO               GeneratorType = 23
	GenFreqVibLFO                GeneratorType = 24
	GenDelayModEnv               GeneratorType = 25
	GenAttackModEnv              GeneratorType = 26
	GenHoldModEnv                GeneratorType = 27
	GenDecayModEnv               GeneratorType = 28
	GenSustainModEnv             GeneratorType = 29
	GenReleaseModEnv             GeneratorType = 30
	GenKeynumToModEnvHold        GeneratorType = 31
	GenKeynumToModEnvDecay       GeneratorType = 32
	GenDelayVolEnv               GeneratorType = 33
	GenAttackVolEnv              GeneratorType = 34
	GenHoldVolEnv                GeneratorType = 35
	GenDecayVolEnv               GeneratorType = 36
	GenSustainVolEnv             GeneratorType = 37
	GenReleaseVolEnv             GeneratorType = 38
	GenKeynumToVolEnvHold        GeneratorType = 39
	GenKeynumToVolEnvDecay       GeneratorType = 40
	GenInstrument                GeneratorType = 41
	GenReserved1                 GeneratorType = 42
	GenKeyRange                  GeneratorType = 43
	GenVelRange                  GeneratorType = 44
	GenStartloopAddrsCoarseOffset GeneratorType = 45
	GenKeynum                    GeneratorType = 46
	GenVelocity                  GeneratorType = 47
	GenInitialAttenuation        GeneratorType = 48
	GenReserved2                 GeneratorType = 49
	GenEndloopAddrsCoarseOffset  GeneratorType = 50
	GenCoarseTune                GeneratorType = 51
	GenFineTune                  GeneratorType = 52
	GenSampleID                  GeneratorType = 53
	GenSampleModes               GeneratorType = 54
	GenReserved3                 GeneratorType = 55
	GenScaleTuning                GeneratorType = 56
	GenExclusiveClass            GeneratorType = 57
	GenOverridingRootKey         GeneratorType = 58
	GenUnused5                   GeneratorType = 59
	GenEndOper                   GeneratorType = 60
)

func (g GeneratorType) String() string {
	if int(g) < len(generatorNames) {
		return generatorNames[g]
	}
	return fmt.Sprintf("Generator(%d)", uint16(g))
}

var generatorNames = [...]string{
	"startAddrsOffset", "endAddrsOffset", "startloopAddrsOffset", "endloopAddrsOffset",
	"startAddrsCoarseOffset", "modLfoToPitch", "vibLfoToPitch", "modEnvToPitch",
	"initialFilterFc", "initialFilterQ", "modLfoToFilterFc", "modEnvToFilterFc",
	"endAddrsCoarseOffset", "modLfoToVolume", "unused1", "chorusEffectsSend",
	"reverbEffectsSend", "pan", "unused2", "unused3",
	"unused4", "delayModLFO", "freqModLFO", "delayVibLFO",
	"freqVibLFO", "delayModEnv", "attackModEnv", "holdModEnv",
	"decayModEnv", "sustainModEnv", "releaseModEnv", "keynumToModEnvHold",
	"keynumToModEnvDecay", "delayVolEnv", "attackVolEnv", "holdVolEnv",
	"decayVolEnv", "sustainVolEnv", "releaseVolEnv", "keynumToVolEnvHold",
	"keynumToVolEnvDecay", "instrument", "reserved1", "keyRange",
	"velRange", "startloopAddrsCoarseOffset", "keynum", "velocity",
	"initialAttenuation", "reserved2", "endloopAddrsCoarseOffset", "coarseTune",
	"fineTune", "sampleID", "sampleModes", "reserved3",
	"scaleTuning", "exclusiveClass", "overridingRootKey", "unused5",
	"endOper",
}

// GenAmount is the raw 16-bit value a generator carries; most generators
// hold a signed amount, a few (keyRange, velRange) hold a pair of bytes.
type GenAmount struct {
	raw uint16
}

func GenAmountFromRaw(raw uint16) GenAmount { return GenAmount{raw: raw} }

// AsInt16 interprets the amount as a signed 16-bit offset, the common case.
func (a GenAmount) AsInt16() int16 { return int16(a.raw) }

// AsUint16 interprets the amount as an unsigned 16-bit value (sampleModes,
// exclusiveClass, sampleID, instrument, overridingRootKey).
func (a GenAmount) AsUint16() uint16 { return a.raw }

// LoRange and HiRange interpret the amount as a byte-pair range
// (keyRange, velRange): low byte first, high byte second.
func (a GenAmount) LoRange() uint8 { return uint8(a.raw) }
func (a GenAmount) HiRange() uint8 { return uint8(a.raw >> 8) }

// GeneratorSet is the 61-slot generator table a zone carries; zero value
// means "generator not present", distinguished from an explicit zero
// amount via the presence map.
type GeneratorSet struct {
	values map[GeneratorType]GenAmount
}

func NewGeneratorSet() GeneratorSet {
	return GeneratorSet{values: make(map[GeneratorType]GenAmount)}
}

func (g *GeneratorSet) Set(t GeneratorType, amount GenAmount) {
	if g.values == nil {
		g.values = make(map[GeneratorType]GenAmount)
	}
	g.values[t] = amount
}

// Get returns the amount set for t, and whether it was present at all.
func (g GeneratorSet) Get(t GeneratorType) (GenAmount, bool) {
	a, ok := g.values[t]
	return a, ok
}

// Int16 returns the generator's signed value, or def if absent.
func (g GeneratorSet) Int16(t GeneratorType, def int16) int16 {
	if a, ok := g.values[t]; ok {
		return a.AsInt16()
	}
	return def
}

// Uint16 returns the generator's unsigned value, or def if absent.
func (g GeneratorSet) Uint16(t GeneratorType, def uint16) uint16 {
	if a, ok := g.values[t]; ok {
		return a.AsUint16()
	}
	return def
}

// Merge returns a new GeneratorSet with every entry of base, overridden by
// every entry of overlay (overlay wins on conflict). It layers a zone's
// own generators over its list's global zone; the additive
// preset-plus-instrument composition is done by composeGenerators, not
// by Merge.
func Merge(base, overlay GeneratorSet) GeneratorSet {
	out := NewGeneratorSet()
	for t, a := range base.values {
		out.values[t] = a
	}
	for t, a := range overlay.values {
		out.values[t] = a
	}
	return out
}
