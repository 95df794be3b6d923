package social

// The social screens have no backend yet. These are the fixtures they show.

func seedPosts() []Post {
	return []Post{
		{ID: 1, Author: "Maria Silva", Pet: "Luna (Golden Retriever)", Age: "2h", Content: "Luna aprendeu um novo truque hoje! 🐕✨", ImageURL: "https://images.unsplash.com/photo-1552053831-71594a27632d?w=400", Likes: 24, Comments: 8, Shares: 3},
		{ID: 2, Author: "João Santos", Pet: "Mimi (Gato Persa)", Age: "4h", Content: "Dia de spa para a Mimi! Ela está adorando 😸", ImageURL: "https://images.unsplash.com/photo-1514888286974-6c03e2ca1dba?w=400", Likes: 18, Comments: 5, Shares: 2, Liked: true},
		{ID: 3, Author: "Ana Costa", Pet: "Rex (Pastor Alemão)", Age: "6h", Content: "Passeio no parque com o Rex. Ele ama correr! 🏃‍♂️🐕", ImageURL: "https://images.unsplash.com/photo-1551717743-49959800b1f6?w=400", Likes: 31, Comments: 12, Shares: 7},
	}
}

func seedMyGroups() []Group {
	return []Group{
		{ID: 1, Name: "Golden Retrievers Brasil", Description: "Comunidade de donos de Golden Retrievers", Members: 15420, Posts: 234, LastActivity: "2h"},
		{ID: 2, Name: "Gatos de São Paulo", Description: "Grupo para donos de gatos da cidade de SP", Members: 8932, Posts: 156, Private: true, LastActivity: "4h"},
		{ID: 3, Name: "Pets Resgatados", Description: "Adoção responsável e histórias de resgate", Members: 23567, Posts: 445, LastActivity: "1h"},
	}
}

func seedSuggestedGroups() []Group {
	return []Group{
		{ID: 4, Name: "Veterinários Online", Description: "Dicas e consultas com profissionais", Members: 45123, Posts: 789, MutualFriends: 12},
		{ID: 5, Name: "Adestradores Certificados", Description: "Treinamento e comportamento animal", Members: 18765, Posts: 321, MutualFriends: 8},
		{ID: 6, Name: "Pets Idosos - Cuidados Especiais", Description: "Cuidados para pets na terceira idade", Members: 9876, Posts: 234, Private: true, MutualFriends: 5},
	}
}

func seedConversations() []Conversation {
	return []Conversation{
		{ID: 1, Name: "Maria Silva", LastMessage: "Rex está se comportando muito bem!", Age: "2m", Online: true, Unread: 2},
		{ID: 2, Name: "João Santos", LastMessage: "Obrigado pelas dicas de adestramento", Age: "15m", Online: true},
		{ID: 3, Name: "Ana Costa", LastMessage: "Você: Que bom que o Buddy melhorou!", Age: "1h"},
		{ID: 4, Name: "Grupo: Golden Retrievers Brasil", LastMessage: "Carlos: Alguém tem dicas para pelos embaraçados?", Age: "2h", Unread: 5, Group: true},
		{ID: 5, Name: "Dr. Pedro Veterinário", LastMessage: "Está digitando...", Age: "3h", Online: true, Typing: true},
		{ID: 6, Name: "Loja Pet Center", LastMessage: "Sua encomenda foi enviada! 📦", Age: "1d", Unread: 1},
		{ID: 7, Name: "Grupo: Pets Resgatados", LastMessage: "Marina: Encontrei um gatinho na rua...", Age: "2d", Group: true},
	}
}

func seedActiveUsers() []string {
	return []string{"Maria", "João", "Dr. Pedro", "Carlos", "Lucia"}
}

func seedProfile() Profile {
	return Profile{
		Name:      "João Silva",
		Bio:       "Amante de animais 🐕🐱 | Veterinário | São Paulo, SP",
		Posts:     127,
		Followers: 1234,
		Following: 567,
		Pets: []Pet{
			{ID: 1, Name: "Rex", Species: "Cão", Breed: "Golden Retriever", Age: "3 anos"},
			{ID: 2, Name: "Luna", Species: "Gato", Breed: "Siamês", Age: "2 anos"},
			{ID: 3, Name: "Buddy", Species: "Cão", Breed: "Labrador", Age: "5 anos"},
		},
		RecentPosts: []Post{
			{ID: 1, Content: "Rex adorou o novo brinquedo! 🐕", Age: "2h", Likes: 15, Comments: 3},
			{ID: 2, Content: "Passeio no parque com Luna e Buddy 🌳", Age: "1d", Likes: 28, Comments: 8},
			{ID: 3, Content: "Dicas de cuidados para pets no inverno ❄️", Age: "3d", Likes: 42, Comments: 15},
		},
	}
}
