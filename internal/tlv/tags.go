package tlv

// Tag numbers reuse ka9q-radio's status.h enum exactly. Keeping these
// numbers bit-compatible means a wire capture from a real deployment, or
// a real control client, decodes and encodes against this package
// unchanged.
const (
	CommandTag byte = 1

	RadioFrequency       byte = 2
	FirstLOFrequency     byte = 3
	SecondLOFrequency    byte = 4
	ShiftFrequency       byte = 11
	LowEdge              byte = 12
	HighEdge             byte = 13
	KaiserBeta           byte = 14
	FilterBlocksize      byte = 15
	Filter2              byte = 16
	Filter2KaiserBeta    byte = 17
	OutputSSRC           byte = 18
	OutputSampleRate     byte = 19
	OutputChannels       byte = 20
	OutputEncoding       byte = 21
	OpusBitRate          byte = 22
	DopplerFrequency     byte = 23
	DopplerFrequencyRate byte = 24
	Preset               byte = 25

	DemodType         byte = 32
	IndependentSideband byte = 33
	ThreshExtend      byte = 34
	Envelope          byte = 35
	PLLEnable         byte = 36
	PLLBW             byte = 37
	PLLSquare         byte = 38
	AGCEnable         byte = 39
	Gain              byte = 40
	Headroom          byte = 41
	AGCHangtime       byte = 42
	AGCRecoveryRate   byte = 43
	AGCThreshold      byte = 44
	SquelchOpen       byte = 45
	SquelchClose      byte = 46
	SNRSquelch        byte = 48

	LNAGain   byte = 30
	MixerGain byte = 31
	IFPower   byte = 47

	NoncoherentBinBW byte = 93
	BinCount         byte = 94
	BinData          byte = 142

	StatusInterval       byte = 60
	SetOpts              byte = 61
	ClearOpts            byte = 62
	MinPacket            byte = 63
	OutputDataDestSocket byte = 64

	RFAtten byte = 96
	RFGain  byte = 97
	RFAGC   byte = 98

	ADOver              byte = 103
	SamplesSinceOver    byte = 107

	// Status-only reporting tags.
	BlockSequence  byte = 120
	BlockDrops     byte = 121
	BasebandPower  byte = 122
	NoiseDensity   byte = 123
	SNR            byte = 124
	PLLPhase       byte = 125
	PLLLock        byte = 126
	FrequencyOffset byte = 127
	FMDeviation    byte = 128
	DemodSNR       byte = 129
	StereoLock     byte = 130
	PacketsIn      byte = 131
	PacketsOut     byte = 132
	OutputSamples  byte = 133
	Errors         byte = 134
	SquelchState   byte = 135
)

// DemodType wire values.
const (
	DemodLinear byte = 0
	DemodFM     byte = 1
	DemodWFM    byte = 2
	DemodSpect  byte = 7
)
