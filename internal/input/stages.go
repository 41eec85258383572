// Package input defines the stage table of the project generator and the
// validation that turns collected answers into a project configuration.
package input

import (
	"fmt"
	"strings"

	"github.com/ty-ras/start/internal/stage"
)

// Stage keys.
const (
	KeyFolderName     = "folderName"
	KeyPackageManager = "packageManager"
	KeyComponents     = "components"
	KeyDataValidation = "dataValidation"
	KeyServer         = "server"
	KeyClient         = "client"
)

// Components choices.
const (
	ComponentsBackend   = "be"
	ComponentsFrontend  = "fe"
	ComponentsFullStack = "be-and-fe"
)

// Package manager choices. PackageManagerPNPM is the workspace-aware one.
const (
	PackageManagerYarn        = "yarn"
	PackageManagerNPM         = "npm"
	PackageManagerPNPM        = "pnpm"
	PackageManagerUnspecified = "unspecified"
)

var (
	PackageManagers = []string{PackageManagerYarn, PackageManagerNPM, PackageManagerPNPM, PackageManagerUnspecified}
	ComponentsAll   = []string{ComponentsBackend, ComponentsFrontend, ComponentsFullStack}
	DataValidations = []string{"io-ts", "runtypes", "zod"}
	Servers         = []string{"node", "koa", "express", "fastify"}
	Clients         = []string{"fetch"}
)

// Stages returns the stage table collecting the project configuration.
func Stages() []stage.Spec {
	return []stage.Spec{
		{
			Key:         "generalMessage",
			OrderNumber: 0,
			Kind:        stage.Message,
			Message: func(stage.Answers) string {
				return "Welcome to TyRAS project generator!\n" +
					"All options and folder can be supplied as command-line arguments; missing ones will be asked."
			},
		},
		{
			Key:         KeyFolderName,
			OrderNumber: 1,
			Kind:        stage.Question,
			Schema:      stage.NonEmptyString(),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptInput,
				Message: "Where should the project be created?",
				Default: "tyras-project",
			},
			Flag: &stage.Flag{
				Description: "Folder to create the project in",
				Positional:  true,
			},
		},
		{
			Key:         KeyPackageManager,
			OrderNumber: 2,
			Kind:        stage.Question,
			Schema:      stage.Enum(PackageManagers...),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptSelect,
				Message: "Which package manager will be used in the project?",
				Default: PackageManagerYarn,
			},
			Flag: &stage.Flag{
				Alias:       "m",
				Description: "Which package manager will be used in the project?",
			},
		},
		{
			Key:         KeyComponents,
			OrderNumber: 3,
			Kind:        stage.Question,
			Schema:      stage.Enum(ComponentsAll...),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptSelect,
				Message: "Which components will be using TyRAS libraries?",
				Default: ComponentsFullStack,
			},
			Flag: &stage.Flag{
				Alias:       "p",
				Description: "Which components will be using TyRAS libraries?",
			},
		},
		{
			Key:         KeyDataValidation,
			OrderNumber: 4,
			Kind:        stage.Question,
			Schema:      stage.Enum(DataValidations...),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptSelect,
				Message: "Which data validation framework should TyRAS be providing?",
				Default: "zod",
			},
			Flag: &stage.Flag{
				Alias:       "d",
				Description: "Which data validation framework should TyRAS be providing?",
			},
		},
		{
			Key:         KeyServer,
			OrderNumber: 5,
			Kind:        stage.Question,
			Condition:   componentsCondition(ComponentsBackend, ComponentsFullStack),
			Schema:      stage.Enum(Servers...),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptSelect,
				Message: "Which server should TyRAS be providing?",
				Default: "node",
			},
			Flag: &stage.Flag{
				Alias:       "s",
				Description: "Which server should TyRAS be providing?",
			},
		},
		{
			Key:         KeyClient,
			OrderNumber: 6,
			Kind:        stage.Question,
			Condition:   componentsCondition(ComponentsFrontend, ComponentsFullStack),
			Schema:      stage.Enum(Clients...),
			Prompt: &stage.Prompt{
				Kind:    stage.PromptSelect,
				Message: "Which client should TyRAS be providing?",
				Default: "fetch",
			},
			Flag: &stage.Flag{
				Alias:       "c",
				Description: "Which client should TyRAS be providing?",
			},
		},
		{
			Key:         "summaryMessage",
			OrderNumber: 7,
			Kind:        stage.Message,
			Message: func(a stage.Answers) string {
				folder, _ := a.String(KeyFolderName)
				if folder == "" {
					return ""
				}
				return fmt.Sprintf("Project will be created in %q.", folder)
			},
		},
	}
}

func componentsCondition(allowed ...string) *stage.Condition {
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return &stage.Condition{
		Description: fmt.Sprintf("Used only when components is %s.", strings.Join(quoted, " or ")),
		IsApplicable: func(a stage.Answers) bool {
			components, _ := a.String(KeyComponents)
			for _, c := range allowed {
				if components == c {
					return true
				}
			}
			return false
		},
	}
}
