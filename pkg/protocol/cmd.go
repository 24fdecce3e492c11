package protocol

// Business commands carried in the CMD field of 202/203 bodies. Their
// payloads are owned by the business layer; only the values are cataloged.
const (
	CmdDeviceList          = 30006
	CmdChannelList         = 30007
	CmdDeviceStatusChange  = 30010
	CmdStitchOnline        = 30011
	CmdStitchList          = 30013
	CmdStitchOffline       = 30022
	CmdChannelStatusChange = 30031
	CmdROIInfo             = 30049
	CmdRecordUpdate        = 30057
	CmdRecordUpdateEnd     = 30058
	CmdPTZInfo             = 30107
	CmdDomeCalibration     = 30114

	// CmdConnectionOpen is never sent on the wire. The message channel
	// emits it locally once per successful Open transition.
	CmdConnectionOpen = 900001
)

// CmdName returns a short name for known commands.
func CmdName(cmd int) string {
	switch cmd {
	case CmdDeviceList:
		return "device-list"
	case CmdChannelList:
		return "channel-list"
	case CmdDeviceStatusChange:
		return "device-status-change"
	case CmdStitchOnline:
		return "stitch-online"
	case CmdStitchList:
		return "stitch-list"
	case CmdStitchOffline:
		return "stitch-offline"
	case CmdChannelStatusChange:
		return "channel-status-change"
	case CmdROIInfo:
		return "roi-info"
	case CmdRecordUpdate, CmdRecordUpdateEnd:
		return "record-update"
	case CmdPTZInfo:
		return "ptz-info"
	case CmdDomeCalibration:
		return "dome-calibration"
	case CmdConnectionOpen:
		return "connection-open"
	default:
		return "unknown"
	}
}
