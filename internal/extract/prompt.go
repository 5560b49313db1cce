package extract

import "fmt"

// systemPrompt directs the model to reformulate, not copy, the source
// content into the canonical JSON shape. The personal/private-reference
// framing matters: recipe sources are usually copyrighted and the model
// refuses verbatim reproduction requests.
const systemPrompt = `Tu es un expert culinaire et un assistant d'extraction de données.
Ton rôle est d'ANALYSER et de STRUCTURER les informations d'une recette à partir du contenu fourni.

CONTEXTE D'UTILISATION :
Le contenu fourni est destiné à un usage STRICTEMENT PERSONNEL pour permettre à l'utilisateur de garder en mémoire une recette qu'il souhaite cuisiner.
Il ne s'agit PAS d'une reproduction pour du contenu commercial, publication, ou redistribution.
L'objectif est uniquement d'aider l'utilisateur à organiser ses recettes personnelles dans sa collection privée.

IMPORTANT :
- Tu dois EXTRAIRE et RESTRUCTURER les informations, pas recopier mot pour mot
- Reformule les instructions dans tes propres mots tout en conservant le sens et les proportions
- Organise les ingrédients de manière claire et structurée
- Si certaines informations manquent, utilise null ou des valeurs par défaut appropriées
- L'extraction sert uniquement à créer une référence personnelle structurée, pas à reproduire le contenu original

Retourne UNIQUEMENT un objet JSON valide (sans Markdown, sans ` + "```json" + `) correspondant à ce schéma :
{
  "title": "Titre",
  "description": "Description",
  "ingredients": [{"name": "Nom", "quantity": "Quantité", "unit": "Unité"}],
  "instructions": ["Étape 1"],
  "prepTime": "XX min",
  "cookTime": "XX min",
  "servings": "X personnes",
  "difficulty": "Facile",
  "tags": ["Tag"]
}`

// textPrompt wraps the reduced page text for analysis.
func textPrompt(text string) string {
	return fmt.Sprintf("Texte à analyser :\n\"\"\"\n%s\n\"\"\"", text)
}

// imagesPrompt closes an image-mode request. All images are attached to a
// single call so the model can merge information across them.
func imagesPrompt(count int) string {
	plural := ""
	if count > 1 {
		plural = "s"
	}
	return fmt.Sprintf(
		"Analyse ces %d image%s de recette (capture%s d'écran ou photo%s de plat). "+
			"Ces captures d'écran sont destinées à un usage STRICTEMENT PERSONNEL pour permettre à l'utilisateur de garder en mémoire cette recette dans sa collection privée. "+
			"Il ne s'agit PAS d'une reproduction pour du contenu commercial ou public. "+
			"Extrais toutes les informations de la recette en combinant le contenu de toutes les images. "+
			"Si les images montrent différentes parties de la recette (ingrédients, étapes, etc.), combine-les pour créer une recette complète. "+
			"IMPORTANT : Reformule les instructions dans tes propres mots, ne recopie pas mot pour mot le texte original. "+
			"Structure les informations de manière claire et organisée pour créer une référence personnelle structurée.",
		count, plural, plural, plural)
}
