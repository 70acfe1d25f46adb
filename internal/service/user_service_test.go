package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWallet(t *testing.T) {
	valid := "0x52908400098527886E0F7030069857D2E4169EE7"

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"canonical", valid, valid, true},
		{"lowercase", "0xde709f2102306220921060314715629080e2fb77", "0xde709f2102306220921060314715629080e2fb77", true},
		{"surrounding spaces", "  " + valid + "  ", valid, true},
		{"quoted", `"` + valid + `"`, valid, true},
		{"trailing period", valid + ".", valid, true},
		{"too short", "0x5290840009852788", "", false},
		{"too long", valid + "ab", "", false},
		{"no prefix", "52908400098527886E0F7030069857D2E4169EE7", "", false},
		{"bad hex", "0xZZ908400098527886E0F7030069857D2E4169EE7", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeWallet(tc.input)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseUserRef(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantID       int64
		wantUsername string
		wantErr      bool
	}{
		{"username", "@zotraveller", 0, "zotraveller", false},
		{"numeric id", "123456789", 123456789, "", false},
		{"padded", "  @zotraveller  ", 0, "zotraveller", false},
		{"bare at", "@", 0, "", true},
		{"negative id", "-42", 0, "", true},
		{"zero id", "0", 0, "", true},
		{"words", "somebody", 0, "", true},
		{"empty", "", 0, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, username, err := ParseUserRef(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrBadUserRef)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, id)
			require.Equal(t, tc.wantUsername, username)
		})
	}
}
