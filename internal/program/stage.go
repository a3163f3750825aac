package program

// Stage は 1 回の mint_nft の進行状態。
//
//	Validated → MetadataCreated → TokenMinted → MetadataLocked → Done
//	検証失敗は Validated に到達する前に Rejected、外部呼び出し失敗は Aborted。
type Stage int

const (
	StagePending Stage = iota
	StageValidated
	StageMetadataCreated
	StageTokenMinted
	StageMetadataLocked
	StageDone
	StageRejected
	StageAborted
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "Pending"
	case StageValidated:
		return "Validated"
	case StageMetadataCreated:
		return "MetadataCreated"
	case StageTokenMinted:
		return "TokenMinted"
	case StageMetadataLocked:
		return "MetadataLocked"
	case StageDone:
		return "Done"
	case StageRejected:
		return "Rejected"
	case StageAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal は Done / Rejected / Aborted のいずれか。
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageRejected || s == StageAborted
}
