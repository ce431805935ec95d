package client

import "encoding/json"

// Envelope is the top-level JSON structure of every API response: a status
// discriminator, and for list-shaped responses a list of records. Records
// stay raw here; typed decoding happens per endpoint via DecodeList.
type Envelope struct {
	Status string            `json:"status"`
	List   []json.RawMessage `json:"list"`
}

// Response is a raw API response: status code plus undecoded body. It is
// created per request and consumed immediately by the classifier methods
// below.
type Response struct {
	StatusCode int
	Body       []byte
}

// Success classifies the response. 403 means the credentials are invalid,
// 401 means the key lacks rights for the endpoint; both surface as
// *AuthError. An empty body carries no success signal and is not an error
// at this layer. A non-empty body that is not JSON is a
// *MalformedResponseError carrying the raw body.
func (r *Response) Success() (bool, error) {
	switch r.StatusCode {
	case 403:
		return false, &AuthError{Status: 403, Reason: "invalid credentials"}
	case 401:
		return false, &AuthError{Status: 401, Reason: "API key has insufficient rights"}
	}
	if len(r.Body) == 0 {
		return false, nil
	}
	env, err := r.Envelope()
	if err != nil {
		return false, err
	}
	return env.Status == "success", nil
}

// Envelope decodes the body. An empty body yields a nil envelope without
// error; a present but undecodable body yields *MalformedResponseError.
func (r *Response) Envelope() (*Envelope, error) {
	if len(r.Body) == 0 {
		return nil, nil
	}
	var env Envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return nil, &MalformedResponseError{Body: string(r.Body), Err: err}
	}
	return &env, nil
}

// ErrorMessage extracts the provider's error detail from list[0].message.
// It runs inside already-failing paths, so it never fails itself: any parse
// problem yields the empty string.
func (r *Response) ErrorMessage() string {
	env, err := r.Envelope()
	if err != nil || env == nil || len(env.List) == 0 {
		return ""
	}
	var entry struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.List[0], &entry); err != nil {
		return ""
	}
	return entry.Message
}

// DecodeList decodes every record of a list-shaped response into T.
func DecodeList[T any](r *Response) ([]T, error) {
	env, err := r.Envelope()
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}
	out := make([]T, 0, len(env.List))
	for _, raw := range env.List {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &MalformedResponseError{Body: string(raw), Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}
