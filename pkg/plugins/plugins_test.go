package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparhub/sparrow/pkg/plugin"
)

func TestEchoBasic(t *testing.T) {
	p := NewEcho()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("echo", map[string]any{"message": "Hello World"})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, plugin.StatusSuccess, resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Hello World", data["original"])
	assert.Equal(t, "Hello World", data["echoed"])
}

func TestEchoUppercaseRepeat(t *testing.T) {
	p := NewEcho()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("echo", map[string]any{
		"message":   "hi",
		"uppercase": true,
		"repeat":    3,
	})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "HI HI HI", data["echoed"])

	applied := data["transformations_applied"].(map[string]any)
	assert.Equal(t, true, applied["uppercase"])
	assert.Equal(t, 3, applied["repeat"])
	assert.Equal(t, false, applied["prefix"])
	assert.Equal(t, false, applied["suffix"])
}

func TestEchoPrefixSuffixOrder(t *testing.T) {
	p := NewEcho()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("echo", map[string]any{
		"message":   "mid",
		"uppercase": true,
		"prefix":    ">> ",
		"suffix":    " <<",
		"repeat":    2,
	})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)

	data := resp.Data.(map[string]any)
	assert.Equal(t, ">> MID << >> MID <<", data["echoed"])
}

func TestEchoRepeatFromJSONNumber(t *testing.T) {
	p := NewEcho()
	require.NoError(t, p.Initialize(context.Background(), nil))

	// JSON decoding delivers numbers as float64.
	req := plugin.NewRequest("echo", map[string]any{"message": "x", "repeat": float64(2)})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "x x", data["echoed"])
}

func TestCalculatorSimpleAddition(t *testing.T) {
	p := NewCalculator()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("calculate", map[string]any{"expression": "2 + 2"})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, plugin.StatusSuccess, resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "2 + 2", data["expression"])
	assert.Equal(t, 4, data["result"])
	assert.Equal(t, "int", data["type"])
}

func TestCalculatorExpressions(t *testing.T) {
	tests := []struct {
		expression string
		result     any
		resultType string
	}{
		{"3 * 7", 21, "int"},
		{"10 / 4", 2.5, "float"},
		{"7 // 2", 3, "int"},
		{"7 % 3", 1, "int"},
		{"2 ** 10", 1024, "int"},
		{"-2 ** 2", -4, "int"},
		{"(2 + 3) * 4", 20, "int"},
		{"3.14159 * 5**2", 78.539750, "float"},
		{"sqrt(16)", 4, "int"},
		{"round(2.7)", 3, "int"},
		{"abs(-5)", 5, "int"},
		{"2 * pi", 2 * 3.141592653589793, "float"},
	}

	p := NewCalculator()
	require.NoError(t, p.Initialize(context.Background(), nil))

	for _, tc := range tests {
		t.Run(tc.expression, func(t *testing.T) {
			req := plugin.NewRequest("calculate", map[string]any{"expression": tc.expression})
			resp, err := p.Execute(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, plugin.StatusSuccess, resp.Status, resp.Error)

			data := resp.Data.(map[string]any)
			assert.Equal(t, tc.resultType, data["type"])
			switch expected := tc.result.(type) {
			case int:
				assert.Equal(t, expected, data["result"])
			case float64:
				assert.InDelta(t, expected, data["result"].(float64), 1e-6)
			}
		})
	}
}

func TestCalculatorRejectsUnsafeExpressions(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		errText    string
	}{
		{"import call", "__import__('os').system('ls')", "Unsafe function call: unknown"},
		{"unknown name", "x + 1", "Unsafe name: x"},
		{"unknown function", "open('/etc/passwd')", "Unsafe function call: open"},
		{"string constant", "'hello'", "Unsafe constant: hello"},
		{"division by zero", "1 / 0", "Evaluation error: division by zero"},
		{"floor division by zero", "1 // 0", "Evaluation error: division by zero"},
	}

	p := NewCalculator()
	require.NoError(t, p.Initialize(context.Background(), nil))

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := plugin.NewRequest("calculate", map[string]any{"expression": tc.expression})
			resp, err := p.Execute(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, plugin.StatusError, resp.Status)
			assert.Equal(t, tc.errText, resp.Error)
		})
	}
}

func TestCalculatorSyntaxError(t *testing.T) {
	p := NewCalculator()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("calculate", map[string]any{"expression": "2 +"})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "Invalid expression syntax")
}

func TestCalculatorEmptyExpression(t *testing.T) {
	p := NewCalculator()
	require.NoError(t, p.Initialize(context.Background(), nil))

	req := plugin.NewRequest("calculate", map[string]any{})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusError, resp.Status)
	assert.Equal(t, "No expression provided", resp.Error)
}

func TestExtractLinkedInUsername(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.linkedin.com/in/jane-doe/", "jane-doe"},
		{"https://linkedin.com/in/john", "john"},
		{"http://www.linkedin.com/in/someone/details", "someone"},
		{"https://www.linkedin.com/company/acme", ""},
		{"not a url at all", ""},
		{"https://example.com/in/", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, ExtractLinkedInUsername(tc.url), tc.url)
	}
}

func TestLinkedInResolveToolCall(t *testing.T) {
	p := NewLinkedIn().(*LinkedInPlugin)

	tests := []struct {
		name     string
		action   string
		params   map[string]any
		tool     string
		args     map[string]any
		errMsg   string
	}{
		{
			name:   "direct tool action",
			action: "get_person_profile",
			params: map[string]any{"linkedin_username": "jane"},
			tool:   "get_person_profile",
			args:   map[string]any{"linkedin_username": "jane"},
		},
		{
			name:   "direct tool action missing username",
			action: "get_person_profile",
			params: map[string]any{},
			errMsg: "Missing required parameter: linkedin_username",
		},
		{
			name:   "profile action from url",
			action: "scrape_profile",
			params: map[string]any{"url": "https://www.linkedin.com/in/jane-doe/"},
			tool:   "get_person_profile",
			args:   map[string]any{"linkedin_username": "jane-doe"},
		},
		{
			name:   "profile action without input",
			action: "get_profile",
			params: map[string]any{},
			errMsg: "Validation error: Profile URL or username is required",
		},
		{
			name:   "company action",
			action: "scrape_company",
			params: map[string]any{"company_name": "Acme", "get_employees": true},
			tool:   "get_company_profile",
			args:   map[string]any{"company_name": "Acme", "get_employees": true},
		},
		{
			name:   "company action missing name",
			action: "get_company",
			params: map[string]any{},
			errMsg: "Validation error: company_name parameter is required for company scraping",
		},
		{
			name:   "unknown action",
			action: "do_something",
			params: map[string]any{},
			errMsg: "Validation error: Could not determine scraping type. Provide 'action', 'url', 'linkedin_username', or 'company_name'",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := plugin.NewRequest(tc.action, tc.params)
			tool, args, errMsg := p.resolveToolCall(req)
			if tc.errMsg != "" {
				assert.Equal(t, tc.errMsg, errMsg)
				return
			}
			require.Empty(t, errMsg)
			assert.Equal(t, tc.tool, tool)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestLinkedInRequiresCookie(t *testing.T) {
	t.Setenv("LINKEDIN_COOKIE", "")
	p := NewLinkedIn()
	err := p.Initialize(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LinkedIn cookie is required")
}

func TestLinkedInExecuteBeforeInitialize(t *testing.T) {
	p := NewLinkedIn()
	req := plugin.NewRequest("get_person_profile", map[string]any{"linkedin_username": "jane"})
	resp, err := p.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "not initialized")
}
