package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id            uint64 `gorm:"primary_key" json:"-"`
	VoteId        uint64 `gorm:"unique_index" json:"vote_id"`
	Creator       string `json:"creator"`
	Metadata      string `json:"metadata"`
	NewHeight     uint64 `json:"new_height"`
	Executed      bool   `json:"executed"`
	ExecuteHeight uint64 `json:"execute_height"`
}

// Vote is the latest position of a voter on a proposal.
type Vote struct {
	Id       string `gorm:"primary_key" json:"-"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Voter    string `gorm:"index" json:"voter"`
	Supports bool   `json:"supports"`
	Stake    string `json:"stake"`
	Removed  bool   `json:"removed"`
	Height   uint64 `json:"height"`
}

type Delegation struct {
	Delegator string `gorm:"primary_key" json:"delegator"`
	Delegate  string `gorm:"index" json:"delegate"`
	Weight    string `json:"weight"`
	Height    uint64 `json:"height"`
}

type Execution struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Height   uint64 `json:"height"`
}
