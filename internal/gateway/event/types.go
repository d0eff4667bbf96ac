package event

// Name identifies an auditable gateway operation.
type Name string

const (
	CreateContainer       Name = "CREATE_CONTAINER"
	UploadContainer       Name = "UPLOAD_CONTAINER"
	GetContainer          Name = "GET_CONTAINER"
	DeleteContainer       Name = "DELETE_CONTAINER"
	AddDataFile           Name = "ADD_DATAFILE"
	DeleteDataFile        Name = "DELETE_DATAFILE"
	GetDataFilesList      Name = "GET_DATAFILES_LIST"
	GetSignaturesList     Name = "GET_SIGNATURES_LIST"
	GetSignature          Name = "GET_SIGNATURE"
	RemoteSigningInit     Name = "REMOTE_SIGNING_INIT"
	RemoteSigningFinish   Name = "REMOTE_SIGNING_FINISH"
	MobileIDSigningInit   Name = "MOBILE_ID_SIGNING_INIT"
	MobileIDSigningStatus Name = "MOBILE_ID_SIGNING_STATUS"
	SmartIDSigningInit    Name = "SMART_ID_SIGNING_INIT"
	SmartIDSigningStatus  Name = "SMART_ID_SIGNING_STATUS"
	AugmentSignatures     Name = "AUGMENT_SIGNATURES"
	FinalizeSignature     Name = "FINALIZE_SIGNATURE"
	TSARequest            Name = "TSA_REQUEST"
)

// Phase marks where in an operation's lifecycle an event was emitted.
type Phase string

const (
	PhaseStart     Phase = "START"
	PhaseFinish    Phase = "FINISH"
	PhaseException Phase = "EXCEPTION"
)

// Result is the outcome carried by FINISH/EXCEPTION events.
type Result string

const (
	ResultSuccess   Result = "SUCCESS"
	ResultException Result = "EXCEPTION"
)

// Event is one audit record handed to the sink.
type Event struct {
	Name          Name
	Phase         Phase
	CorrelationID string
	Result        Result
	DurationMs    int64
	Attributes    map[string]string
}
