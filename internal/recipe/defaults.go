package recipe

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed default_recipes.yaml
var defaultRecipesYAML []byte

// DefaultRecipes returns the starter catalogue used to seed an empty library.
func DefaultRecipes() ([]Recipe, error) {
	var recipes []Recipe
	if err := yaml.Unmarshal(defaultRecipesYAML, &recipes); err != nil {
		return nil, fmt.Errorf("failed to parse default recipes: %w", err)
	}
	for i, r := range recipes {
		if err := Validate(r); err != nil {
			return nil, fmt.Errorf("default recipe %d (%s): %w", i, r.Name, err)
		}
	}
	return recipes, nil
}
