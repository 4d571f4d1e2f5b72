package controllers

// SetPrompt replaces the password prompt of a controller.
func (it *BackupController) SetPrompt(prompt PasswordPrompter) {
	it.prompt = prompt
}
