package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	site := SiteData{AppName: "Sauti", FrontendBaseURL: "http://localhost:3000"}
	data := struct {
		Name, Title, ReportURL string
	}{Name: "Jane", Title: "Broken AC", ReportURL: "http://localhost:3000/reports/42"}

	t.Run("templated", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "report_completed", TemplateData: data}
		require.NoError(t, msg.Render(site))
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, `Your report "Broken AC" has been resolved`)
		assert.Contains(t, msg.TextContent, data.ReportURL)
		assert.Contains(t, msg.HTMLContent, "<strong>Broken AC</strong>")
	})

	t.Run("plain body", func(t *testing.T) {
		msg := EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render(site))
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "nope"}
		err := msg.Render(site)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email template not found")
	})

	t.Run("missing data", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "report_completed", TemplateData: struct{ Name string }{"Jane"}}
		assert.Error(t, msg.Render(site))
	})
}
