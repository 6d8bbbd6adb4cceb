package activity

import (
	"sync"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-records/pkg/types"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns a configured masker instance with the default denylist.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizeActivity masks sensitive values in the activity metadata in place.
// Metadata that cannot be masked is dropped.
func SanitizeActivity(mask *masker.Masker, activity *types.Activity) {
	if activity == nil || len(activity.Metadata) == 0 {
		return
	}
	activity.Metadata = SanitizeMetadata(mask, activity.Metadata)
}

// SanitizeMetadata returns a masked copy of metadata.
func SanitizeMetadata(mask *masker.Masker, metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return metadata
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return map[string]any{}
	}

	masked, err := mask.Mask(cloneMetadata(metadata))
	if err != nil {
		return map[string]any{}
	}
	out, ok := masked.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return out
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	for _, field := range []string{"Secret", "secret", "token", "api_key"} {
		mask.RegisterMaskField(field, "filled4")
	}
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
