package api

// Empty is the response of calls that only report success.
type Empty struct{}

//
// MatchService
//

type TargetRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type RecordInterestResponse struct {
	// Status of the caller's record: "pending" or "matched".
	Status  string `json:"status"`
	Matched bool   `json:"matched"`
}

type EvaluateStatusResponse struct {
	// Classification: unseen, awaiting-response, matched or incoming-request.
	Classification string `json:"classification"`
}

type DiscoverRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

type Candidate struct {
	Profile
	IncomingRequest bool `json:"incoming_request"`
}

type DiscoverResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type CanChatRequest struct {
	PeerUserID string `json:"peer_user_id"`
}

type CanChatResponse struct {
	Allowed bool `json:"allowed"`
}

type CountMatchesResponse struct {
	Count int64 `json:"count"`
}

type Interest struct {
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	UnixMillis int64  `json:"unix_millis"`
}

// RequestsView is one full state of the caller's requests screen.
type RequestsView struct {
	Pending []Interest `json:"pending"`
	Matched []Interest `json:"matched"`
}

//
// AccountService
//

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=128"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=128"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type GetProfileRequest struct {
	// UserID defaults to the caller.
	UserID string `json:"user_id,omitempty"`
}

type Profile struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type SaveProfileRequest struct {
	Name        string   `json:"name" validate:"required,max=128"`
	Description string   `json:"description" validate:"required,max=2000"`
	Skills      []string `json:"skills" validate:"required,min=1,max=20,dive,required,max=64"`
}

type SearchProfilesRequest struct {
	Skill string `json:"skill" validate:"required,max=64"`
	Limit int32  `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

type SearchProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

//
// ChatService
//

type SendMessageRequest struct {
	PeerUserID string `json:"peer_user_id"`
	Text       string `json:"text"`
}

type Message struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	SenderID    string `json:"sender_id"`
	Text        string `json:"text"`
	CreatedUnix int64  `json:"created_unix"`
}

type ListMessagesRequest struct {
	PeerUserID string `json:"peer_user_id"`
	PageSize   int32  `json:"page_size,omitempty"`
	PageToken  string `json:"page_token,omitempty"`
}

type ListMessagesResponse struct {
	Messages      []Message `json:"messages"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

type WatchMessagesRequest struct {
	PeerUserID string `json:"peer_user_id"`
}

// MessageBatch is the whole ordered thread at one point in time.
type MessageBatch struct {
	Messages []Message `json:"messages"`
}
