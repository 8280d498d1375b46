package ontology

// IntentClassifierResult is the outcome of intent classification.
type IntentClassifierResult struct {
	IntentName  string  `json:"intentName"`
	Probability float32 `json:"probability"`
}

// Slot is a resolved slot value with its span in the input text.
type Slot struct {
	RawValue   string `json:"rawValue"`
	Value      string `json:"value"`
	Entity     string `json:"entity"`
	SlotName   string `json:"slotName"`
	RangeStart int32  `json:"rangeStart"`
	RangeEnd   int32  `json:"rangeEnd"`
}

// SlotList is an ordered list of slots.
type SlotList []Slot

// Foreign sizes and field offsets.
const (
	IntentClassifierResultSize  = 8
	IntentClassifierResultAlign = 4

	SlotSize  = 24
	SlotAlign = 4

	SlotListSize  = 8
	SlotListAlign = 4
)

const (
	offIntentName  = 0
	offProbability = 4

	offSlotValue      = 0
	offSlotRawValue   = 4
	offSlotEntity     = 8
	offSlotName       = 12
	offSlotRangeStart = 16
	offSlotRangeEnd   = 20

	offSlotListData = 0
	offSlotListSize = 4
)
