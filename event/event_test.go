package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Merge_OverrideWins(t *testing.T) {
	base := Context{
		Page:     Page{URL: "https://app.example.com", Path: "/home", Title: "Home"},
		Device:   Device{Type: "desktop", OS: "linux"},
		Campaign: Campaign{Source: "newsletter"},
		Locale:   "en-US",
	}

	override := Context{
		Page:   Page{Path: "/settings"},
		Device: Device{Browser: "firefox"},
		Locale: "de-DE",
	}

	merged := base.Merge(override)

	assert.Equal(t, "/settings", merged.Page.Path)
	assert.Equal(t, "https://app.example.com", merged.Page.URL)
	assert.Equal(t, "Home", merged.Page.Title)
	assert.Equal(t, "desktop", merged.Device.Type)
	assert.Equal(t, "firefox", merged.Device.Browser)
	assert.Equal(t, "newsletter", merged.Campaign.Source)
	assert.Equal(t, "de-DE", merged.Locale)
}

func TestContext_Merge_EmptyOverride(t *testing.T) {
	base := Context{
		Page:     Page{URL: "https://app.example.com"},
		IP:       "10.0.0.1",
		Timezone: "UTC",
	}

	merged := base.Merge(Context{})

	assert.Equal(t, base, merged)
}

func TestContext_Merge_EmptyBase(t *testing.T) {
	override := Context{
		Campaign:  Campaign{Source: "ads", Medium: "cpc"},
		UserAgent: "Mozilla/5.0",
	}

	merged := Context{}.Merge(override)

	assert.Equal(t, override, merged)
}

func TestRawInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		input     RawInput
		wantField string
	}{
		{
			name:  "valid input",
			input: RawInput{Name: "button_click", Product: ProductContentFactory},
		},
		{
			name:      "empty event name",
			input:     RawInput{Product: ProductContentFactory},
			wantField: "event",
		},
		{
			name:      "unknown product",
			input:     RawInput{Name: "button_click", Product: Product("legacy-app")},
			wantField: "product",
		},
		{
			name:      "missing product",
			input:     RawInput{Name: "button_click"},
			wantField: "product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	valid := Event{
		MessageID: "msg-1",
		Name:      "button_click",
		Product:   ProductWebApp,
		Timestamp: time.Now(),
	}
	assert.NoError(t, valid.Validate())

	missingID := valid
	missingID.MessageID = ""
	var verr *ValidationError
	require.ErrorAs(t, missingID.Validate(), &verr)
	assert.Equal(t, "messageId", verr.Field)

	missingTS := valid
	missingTS.Timestamp = time.Time{}
	require.ErrorAs(t, missingTS.Validate(), &verr)
	assert.Equal(t, "timestamp", verr.Field)
}

func TestProperties_Copy(t *testing.T) {
	original := Properties{"a": 1, "b": "two"}

	copied := original.Copy()
	copied["c"] = 3.0

	assert.Len(t, original, 2)
	assert.Len(t, copied, 3)

	var nilBag Properties
	copied = nilBag.Copy()
	assert.NotNil(t, copied)
	assert.Empty(t, copied)
}

func TestProduct_Valid(t *testing.T) {
	assert.True(t, ProductContentFactory.Valid())
	assert.True(t, ProductWebApp.Valid())
	assert.False(t, Product("").Valid())
	assert.False(t, Product("Content-Factory").Valid())
}
