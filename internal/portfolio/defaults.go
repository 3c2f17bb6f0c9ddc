package portfolio

import "time"

const (
	DefaultName          = "Kanu Prajapati"
	DefaultTagline       = "Building the future, one line of code at a time"
	DefaultProjectImage  = "https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=500&h=300&fit=crop&crop=center"
	DefaultImportImage   = "https://images.unsplash.com/photo-1516321318423-f06f85e504b3?w=500&h=300&fit=crop&crop=top"
	DefaultProfileImage  = "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=400&h=400&fit=crop&crop=face"
	DefaultContactTitle  = "New Contact Form Submission"
	DefaultLink          = "#"
	DefaultOwnerEmail    = "kanuprajapati717@gmail.com"
	DefaultGitUsername   = "kanuprajapati"
	DefaultSkillLevel    = 50
	DateLayout           = "2006-01-02"
	defaultChallenges    = "Developing a robust and scalable solution while maintaining clean code architecture and ensuring optimal user experience."
	defaultOutcome       = "Successfully delivered a high-quality project that meets all requirements and provides excellent user experience."
	defaultFullDescLead  = "This is a project developed with modern web technologies."
	defaultFullDescTrail = "Technical Implementation:\nBuilt using industry-standard technologies and best practices to ensure optimal performance and maintainability."
)

var defaultFullDescription = defaultFullDescLead + "\n\nKey Features:\n" +
	"• Modern and responsive design\n" +
	"• Clean and efficient code structure\n" +
	"• User-friendly interface\n" +
	"• Cross-platform compatibility\n\n" +
	defaultFullDescTrail

func DefaultProfile() Profile {
	return Profile{
		Name:         DefaultName,
		Tagline:      DefaultTagline,
		Bio:          "Passionate full-stack developer with expertise in modern web technologies. I love creating innovative solutions that solve real-world problems and enhance user experiences.",
		Skills:       []string{"React", "Node.js", "TypeScript", "MongoDB", "Express", "JavaScript", "Python", "AWS"},
		Experience:   "3+ Years",
		Availability: "Available for freelance projects",
		ContactInfo: ContactInfo{
			Email:    DefaultOwnerEmail,
			Phone:    "+91 9876543210",
			Location: "Gujarat, India",
			LinkedIn: "https://linkedin.com/in/kanuprajapati",
			GitHub:   "https://github.com/kanuprajapati",
			Website:  "https://kanuprajapati.dev",
			Twitter:  "https://twitter.com/kanuprajapati",
		},
		ProfileImage: DefaultProfileImage,
		LogoText:     "⚡ logo",
		ResumeURL:    "",
	}
}

func DefaultProjects() []Project {
	return []Project{
		{
			ID:          1,
			Title:       "AI-Powered Course Platform",
			Description: "Developed a robust platform for creating and managing AI-generated courses, featuring intuitive course creation tools.",
			Tags:        []string{"React.js", "TypeScript", "Next.js", "CSS"},
			Image:       DefaultImportImage,
			Status:      StatusLive,
			Links: ProjectLinks{
				GitHub: "https://github.com/kanuprajapati/ai-course-platform",
				Demo:   "https://react-portfolio-template.vercel.app",
			},
		},
		{
			ID:          2,
			Title:       "E-commerce Analytics Dashboard",
			Description: "Built a real-time analytics dashboard to track sales, customer behavior, and inventory, providing key insights.",
			Tags:        []string{"React", "D3.js", "Node.js", "Express"},
			Image:       "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=500&h=300&fit=crop&crop=top",
			Status:      StatusLive,
			Links: ProjectLinks{
				GitHub: "https://github.com/kanuprajapati/ecommerce-analytics",
				Demo:   "https://dashboard-template-react.vercel.app",
			},
		},
		{
			ID:          3,
			Title:       "Decentralized Voting System",
			Description: "Implemented a secure and transparent voting system using blockchain technology, ensuring vote integrity.",
			Tags:        []string{"Solidity", "Hardhat", "React", "Web3.js"},
			Image:       "https://images.unsplash.com/photo-1559494007-9f5847c49d94?w=500&h=300&fit=crop&crop=center",
			Status:      StatusCompleted,
			Links: ProjectLinks{
				GitHub: "https://github.com/kanuprajapati/blockchain-voting",
				Demo:   "https://web3-voting-app.vercel.app",
			},
		},
		{
			ID:          4,
			Title:       "Personal Finance Tracker",
			Description: "Created a user-friendly web application to help individuals track expenses, set budgets, and visualizing spending patterns.",
			Tags:        []string{"Vue.js", "Firebase", "TypeScript", "Chart.js"},
			Image:       "https://images.unsplash.com/photo-1554224155-6726b3ff858f?w=500&h=300&fit=crop&crop=center",
			Status:      StatusLive,
			Links: ProjectLinks{
				GitHub: "https://github.com/kanuprajapati/finance-tracker",
				Demo:   "https://finance-tracker-vue.vercel.app",
			},
		},
	}
}

func DefaultActivities() []Activity {
	return []Activity{
		{ID: 1, Date: "2024-07-20", Description: "Successfully migrated portfolio site to new hosting provider, improving load times by 50%.", Type: "Achievement"},
		{ID: 2, Date: "2024-07-15", Description: `Completed "Advanced React Patterns" online course, enhancing frontend development skills.`, Type: "Learning"},
		{ID: 3, Date: "2024-07-10", Description: `Presented on "Effective Data Visualization" at local tech meetup, receiving positive feedback.`, Type: "Speaking"},
		{ID: 4, Date: "2024-07-05", Description: `Published a new blog post titled "Leveraging AI in Modern Web Development".`, Type: "Writing"},
		{ID: 5, Date: "2024-06-28", Description: `Attended "Future of Web Design" conference, gaining insights into emerging trends.`, Type: "Conference"},
	}
}

func DefaultSkills() []Skill {
	return []Skill{
		{ID: 1, Name: "JavaScript", Proficiency: 90},
		{ID: 2, Name: "React", Proficiency: 85},
		{ID: 3, Name: "TypeScript", Proficiency: 80},
		{ID: 4, Name: "Tailwind CSS", Proficiency: 92},
		{ID: 5, Name: "Node.js", Proficiency: 75},
		{ID: 6, Name: "Database Management (SQL)", Proficiency: 70},
		{ID: 7, Name: "Git & GitHub", Proficiency: 95},
	}
}

func DefaultSMSCategories() []string {
	return []string{"Contact", "Inquiry", "Support", "Urgent"}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{EmailNotifications: true}
}

func DefaultGitSettings() GitSettings {
	return GitSettings{Username: DefaultGitUsername, IsConnected: true}
}

// ProjectDetail fills the extended fields that are absent with boilerplate.
// Screenshots default to the card image three times and dateCompleted to
// the day of now.
func ProjectDetail(p Project, now time.Time) Project {
	out := p
	if out.FullDescription == "" {
		out.FullDescription = defaultFullDescription
	}
	if out.Challenges == "" {
		out.Challenges = defaultChallenges
	}
	if out.Outcome == "" {
		out.Outcome = defaultOutcome
	}
	if len(out.Screenshots) == 0 {
		out.Screenshots = []string{out.Image, out.Image, out.Image}
	} else {
		out.Screenshots = append([]string(nil), p.Screenshots...)
	}
	if out.DateCompleted == "" {
		out.DateCompleted = now.UTC().Format(DateLayout)
	}
	out.Tags = append([]string(nil), p.Tags...)
	return out
}

// Today is the calendar date in the layout used by the stored records.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}
