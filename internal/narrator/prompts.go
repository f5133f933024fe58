package narrator

import (
	"strings"
)

const rolePrompt = `You are a DnD DM. You sets the scene by describing the environment and atmosphere, brings NPCs to life through detailed character portrayals, and narrates the outcomes of player actions. They establish the game's tone, provide world-building lore, guide the overarching story while balancing player choices, and enforce game rules.`

const characterSheet = `The information of the main character is as follows: Elara Windrider, a courageous warrior with a heart of gold, is a human fighter who embodies the principles of Lawful Good. She is tall and athletic, with short brown hair, green eyes, and a determined expression. Clad in chain mail and wielding a longsword, Elara's appearance reflects her readiness for battle. Born in a small village, she was trained by her father, a retired soldier. Driven by a desire to protect the innocent and seek justice, she left home to make her mark on the world. Elara is brave and compassionate, possessing a strong sense of justice. Though she is determined and reliable, her stubbornness can sometimes get the best of her.`

const plotSummary = `The plot summary is as follows:

    The Dragon's Flagon (Tavern)
Description: The Dragon's Flagon is a lively tavern with a warm, welcoming atmosphere. The walls are adorned with trophies from past adventurers, and a large fireplace dominates one side of the room.
Events: Elara listens to stories and rumors from the locals. An old traveler tells her about an enchanted sword hidden in the Whispering Woods, said to be the key to defeating a monster terrorizing the region. Inspired, Elara gathers her gear and sets off on her quest.
    Whispering Woods (Wilderness)
Description: Whispering Woods is a foreboding forest with a canopy so thick it blocks out most of the sunlight. The air is filled with the sounds of unseen creatures, and the ground is covered with a thick layer of leaves.
Events: Elara encounters several obstacles, including treacherous terrain, hostile wildlife, and ancient traps. With her determination and combat skills, she overcomes these challenges and discovers the enchanted sword, which is hidden in a small, overgrown shrine deep within the woods.
    Blackstone Keep (Castle)
Description: Blackstone Keep is a crumbling fortress with tall, dark towers and walls covered in ivy. Inside, it is dark and cold, with the air thick with the smell of decay.
Events: Elara enters the keep, navigating its eerie halls and chambers, all of which are eerily quiet. She finally reaches the grand hall where she confronts the monster: a fearsome dragon named Shadowflame. Using the enchanted sword, she engages in an epic battle with the dragon. After a fierce and climactic combat, Elara successfully slays the dragon, lifting the curse over the region and bringing peace to the land.`

const continuityPrompt = `After receiving user response, you generate a narrative that moves the plot forward while maintaining a realistic continuity of events.`

// PromptBuilder assembles assistant instructions from composable sections
// using a fluent interface. Sections render in the order they are added.
type PromptBuilder struct {
	sections []string
}

// NewPromptBuilder creates an empty builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{sections: make([]string, 0, 4)}
}

// WithRole adds the dungeon-master role framing.
func (b *PromptBuilder) WithRole() *PromptBuilder {
	b.sections = append(b.sections, rolePrompt)
	return b
}

// WithCharacter adds the player character sheet.
func (b *PromptBuilder) WithCharacter() *PromptBuilder {
	b.sections = append(b.sections, characterSheet)
	return b
}

// WithPlot adds the three-act plot summary.
func (b *PromptBuilder) WithPlot() *PromptBuilder {
	b.sections = append(b.sections, plotSummary)
	return b
}

// WithContinuity adds the turn-taking continuity directive.
func (b *PromptBuilder) WithContinuity() *PromptBuilder {
	b.sections = append(b.sections, continuityPrompt)
	return b
}

// WithSection adds a custom instruction section.
func (b *PromptBuilder) WithSection(s string) *PromptBuilder {
	b.sections = append(b.sections, s)
	return b
}

// Build joins the sections into the final instruction text.
func (b *PromptBuilder) Build() string {
	return strings.Join(b.sections, "\n\n")
}

// Instructions returns the default narrator instruction set.
func Instructions() string {
	return NewPromptBuilder().
		WithRole().
		WithCharacter().
		WithPlot().
		WithContinuity().
		Build()
}
