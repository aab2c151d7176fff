// Package shared holds the wire contract spoken by the gRPC server and the CLI
// client: the service and method names and the JSON payload conversion.
package shared

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nestdevhive.v1.Accounts"

const (
	MethodRegister        = "Register"
	MethodLogin           = "Login"
	MethodRefresh         = "Refresh"
	MethodChangePassword  = "ChangePassword"
	MethodLogout          = "Logout"
	MethodMe              = "Me"
	MethodAvatarUploadURL = "AvatarUploadURL"
	MethodCreateProject   = "CreateProject"
	MethodListProjects    = "ListProjects"
	MethodGetProject      = "GetProject"
	MethodJoinProject     = "JoinProject"
	MethodPing            = "Ping"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	MethodRegister:     true,
	MethodLogin:        true,
	MethodRefresh:      true,
	MethodListProjects: true,
	MethodGetProject:   true,
	MethodPing:         true,
}

// FullMethod returns the path used on the wire, e.g. "/nestdevhive.v1.Accounts/Login".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ToStruct converts any JSON-marshalable value into a protobuf Struct.
// Values that do not encode to a JSON object are wrapped as {"items": v}.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		b, err = json.Marshal(map[string]json.RawMessage{"items": b})
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return s, nil
}

// FromStruct decodes s into dst using dst's JSON tags. A nil s leaves dst untouched.
func FromStruct(s *structpb.Struct, dst any) error {
	if s == nil {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
