package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testToken               = "T1"
	testClientAllowInsecure = true
)

func TestGuestsClientList(t *testing.T) {
	testCases := []struct {
		name          string
		respBody      string
		expectedCount int
		expectedTotal int
	}{
		{
			name: "bare array",
			respBody: `[{"id":"g-1","phone":"+992000000001"},` +
				`{"id":"g-2","phone":"+992000000002"},` +
				`{"id":"g-3","phone":"+992000000003"}]`,
			expectedCount: 3,
			expectedTotal: 3,
		},
		{
			name: "paged object",
			respBody: `{"items":[{"id":"g-1","phone":"+992000000001"},` +
				`{"id":"g-2","phone":"+992000000002"}],"total":2}`,
			expectedCount: 2,
			expectedTotal: 2,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(
				http.HandlerFunc(
					func(w http.ResponseWriter, r *http.Request) {
						require.Equal(t, http.MethodGet, r.Method)
						require.Equal(t, "/api/v1/guests", r.URL.Path)
						require.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
						require.Equal(t, "ann", r.URL.Query().Get("search"))
						require.Equal(t, "2", r.URL.Query().Get("page"))
						require.Equal(t, "20", r.URL.Query().Get("limit"))
						fmt.Fprintln(w, testCase.respBody)
					},
				),
			)
			defer server.Close()
			client := NewGuestsClient(server.URL, testClientAllowInsecure)
			guests, err := client.List(
				context.Background(),
				testToken,
				GuestsSelector{
					Search: "ann",
					Page:   2,
					Limit:  20,
				},
			)
			require.NoError(t, err)
			require.Len(t, guests.Items, testCase.expectedCount)
			require.Equal(t, testCase.expectedTotal, guests.Total)
		})
	}
}

func TestGuestsClientListWithoutFilters(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Empty(t, r.URL.RawQuery)
				fmt.Fprintln(w, `[]`)
			},
		),
	)
	defer server.Close()
	client := NewGuestsClient(server.URL, testClientAllowInsecure)
	guests, err := client.List(context.Background(), testToken, GuestsSelector{})
	require.NoError(t, err)
	require.Empty(t, guests.Items)
	require.Equal(t, 0, guests.Total)
}

func TestGuestsClientGet(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/v1/guests/g-1", r.URL.Path)
				fmt.Fprintln(
					w,
					`{"id":"g-1","phone":"+992000000001","name":"Ann","visit_count":4}`,
				)
			},
		),
	)
	defer server.Close()
	client := NewGuestsClient(server.URL, testClientAllowInsecure)
	guest, err := client.Get(context.Background(), testToken, "g-1")
	require.NoError(t, err)
	require.Equal(t, "g-1", guest.ID)
	require.Equal(t, "Ann", guest.DisplayName())
	require.Equal(t, 4, guest.VisitCount)
}

func TestGuestsClientCreate(t *testing.T) {
	name := "Ann"
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/api/v1/guests", r.URL.Path)
				bodyBytes, err := ioutil.ReadAll(r.Body)
				require.NoError(t, err)
				require.JSONEq(
					t,
					`{"phone":"+992000000001","name":"Ann"}`,
					string(bodyBytes),
				)
				w.WriteHeader(http.StatusCreated)
				fmt.Fprintln(w, `{"id":"g-1","phone":"+992000000001","name":"Ann"}`)
			},
		),
	)
	defer server.Close()
	client := NewGuestsClient(server.URL, testClientAllowInsecure)
	guest, err := client.Create(
		context.Background(),
		testToken,
		GuestCreateInput{
			Phone: "+992000000001",
			Name:  &name,
		},
	)
	require.NoError(t, err)
	require.Equal(t, "g-1", guest.ID)
}

func TestGuestsClientCreateRejected(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintln(w, `{"detail":"Phone already exists"}`)
			},
		),
	)
	defer server.Close()
	client := NewGuestsClient(server.URL, testClientAllowInsecure)
	_, err := client.Create(
		context.Background(),
		testToken,
		GuestCreateInput{Phone: "+992000000001"},
	)
	require.Error(t, err)
	require.Equal(t, "Phone already exists", err.Error())
}

func TestGuestsClientUpdate(t *testing.T) {
	phone := "+992000000009"
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPatch, r.Method)
				require.Equal(t, "/api/v1/guests/g-1", r.URL.Path)
				bodyBytes, err := ioutil.ReadAll(r.Body)
				require.NoError(t, err)
				require.JSONEq(t, `{"phone":"+992000000009"}`, string(bodyBytes))
				fmt.Fprintln(w, `{"id":"g-1","phone":"+992000000009"}`)
			},
		),
	)
	defer server.Close()
	client := NewGuestsClient(server.URL, testClientAllowInsecure)
	guest, err := client.Update(
		context.Background(),
		testToken,
		"g-1",
		GuestUpdateInput{Phone: &phone},
	)
	require.NoError(t, err)
	require.Equal(t, phone, guest.Phone)
}

func TestGuestListMarshalJSON(t *testing.T) {
	guests := GuestList{Items: []Guest{{ID: "g-1"}}}
	guests.Total = 1
	bytes, err := json.Marshal(guests)
	require.NoError(t, err)
	decoded := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(bytes, &decoded))
	require.Equal(t, float64(1), decoded["total"])
	require.Len(t, decoded["items"], 1)
}
