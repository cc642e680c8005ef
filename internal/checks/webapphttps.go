package checks

import (
	"fmt"

	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

// WebAppHTTPS flags web apps that accept plain HTTP traffic, i.e. web app
// configs whose https_only flag is false.
type WebAppHTTPS struct{}

// NewWebAppHTTPS returns the https-only check.
func NewWebAppHTTPS() *WebAppHTTPS { return &WebAppHTTPS{} }

// Eval yields one web_app_https_event record if rec is a web app config
// that does not enforce HTTPS.
func (c *WebAppHTTPS) Eval(rec model.Record) ([]model.Record, error) {
	ext := rec.Bucket("ext")
	if ext == nil {
		return nil, nil
	}
	if ext.String("record_type") != "web_app_config" {
		return nil, nil
	}
	httpsOnly, ok := ext["https_only"].(bool)
	if !ok || httpsOnly {
		return nil, nil
	}

	com := rec.Bucket("com")
	cloudType := com.String("cloud_type")
	friendly := utils.FriendlyString(cloudType)
	reference := com.String("reference")

	event := model.Record{
		"ext": ext.Merge(model.Bucket{
			"record_type": "web_app_https_event",
		}),
		"com": {
			"cloud_type":  cloudType,
			"record_type": "web_app_https_event",
			"reference":   reference,
			"description": fmt.Sprintf("%s web app %s allows plain HTTP traffic.",
				friendly, reference),
			"recommendation": fmt.Sprintf("Check %s web app %s and ensure HTTPS-only traffic is enforced.",
				friendly, reference),
		},
	}
	return []model.Record{event}, nil
}

// Done performs cleanup work. Currently nothing to release.
func (c *WebAppHTTPS) Done() error { return nil }
