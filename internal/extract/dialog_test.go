package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureDialog(t *testing.T) {
	doc := parse(t, `
<div class="swal2-modal" style="display: none"><h2>Old</h2></div>
<div class="swal2-modal swal2-show" style="display: block;">
  <h2>Error</h2>
  <div class="swal2-content">You have already registered for this semester</div>
  <button class="swal2-confirm">OK</button>
</div>`)

	d, ok, err := CaptureDialog(doc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Error", d.Title)
	require.Equal(t, "You have already registered for this semester", d.Body)
	require.Equal(t, "Error You have already registered for this semester", d.Text())
	require.NotNil(t, d.Dismiss)
	require.Equal(t, "button", d.Dismiss.Tag())
}

func TestCaptureDialogAriaHidden(t *testing.T) {
	doc := parse(t, `<div class="swal2-modal" aria-hidden="false"><div class="swal2-content">Fee balance pending</div></div>`)

	d, ok, err := CaptureDialog(doc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, d.Title)
	require.Equal(t, "Fee balance pending", d.Text())
	require.Nil(t, d.Dismiss)
}

func TestNoDialog(t *testing.T) {
	doc := parse(t, `<div class="swal2-modal" style="display: none"><h2>Hidden</h2></div>`)

	_, ok, err := CaptureDialog(doc)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmptyDialogIsIgnored(t *testing.T) {
	doc := parse(t, `<div class="swal2-modal" style="display: block;"><h2> </h2><div class="swal2-content"></div><button class="swal2-confirm">OK</button></div>`)

	_, ok, err := CaptureDialog(doc)
	require.NoError(t, err)
	require.False(t, ok)

	d, ok, err := CaptureDialog(parse(t, `<div class="swal2-modal" aria-hidden="false"><h2>Notice</h2></div>`))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Notice", d.Text())
}

func TestInlineError(t *testing.T) {
	doc := parse(t, `
<div class="alert-danger">Oops</div>
<span style="color:red">Session expired, please log in again</span>`)

	text, ok, err := InlineError(doc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Session expired, please log in again", text)

	_, ok, err = InlineError(parse(t, `<div class="error-message">Short</div>`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoginError(t *testing.T) {
	text, ok, err := LoginError(parse(t, `<span id="ContentPlaceHolder1_lblError">Invalid credentials</span>`))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Invalid credentials", text)

	_, ok, err = LoginError(parse(t, `<span id="ContentPlaceHolder1_lblError"></span>`))
	require.NoError(t, err)
	require.False(t, ok)
}
