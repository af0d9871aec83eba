package vc_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-pod-app/vc"
	"github.com/stretchr/testify/require"
)

const grantJSON = `{
  "id": "https://vc.example/vc/grant-1",
  "type": ["VerifiableCredential", "SolidAccessGrant"],
  "issuer": "https://vc.example",
  "issuanceDate": "2026-10-17T10:00:00Z",
  "expirationDate": "2026-10-18T10:00:00Z",
  "credentialSubject": {
    "id": "https://id.example/alice",
    "providedConsent": {
      "mode": ["http://www.w3.org/ns/auth/acl#Read"],
      "forPersonalData": ["https://pod.example/alice/"],
      "isProvidedTo": "https://id.example/bob"
    }
  },
  "proof": {"type": "Ed25519Signature2020"}
}`

func TestAccessGrant_Decode(t *testing.T) {
	var grant vc.AccessGrant
	require.NoError(t, json.Unmarshal([]byte(grantJSON), &grant))

	require.Equal(t, "https://vc.example/vc/grant-1", grant.ID)
	require.Equal(t, []string{"https://pod.example/alice/"}, grant.Resources())
	require.Equal(t, []string{vc.ModeRead}, grant.Modes())
	require.JSONEq(t, `{"type": "Ed25519Signature2020"}`, string(grant.Proof))

	require.False(t, grant.Expired(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))
	require.True(t, grant.Expired(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)))
}

func TestAccess_Modes(t *testing.T) {
	require.Equal(t, []string{vc.ModeRead, vc.ModeWrite, vc.ModeAppend}, vc.FullAccess.Modes())
	require.Empty(t, vc.Access{}.Modes())
}

func TestCredential_NoConsent(t *testing.T) {
	var c vc.Credential
	require.Nil(t, c.Resources())
	require.False(t, c.Expired(time.Now()))
}
